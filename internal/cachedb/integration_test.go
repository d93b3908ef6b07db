package cachedb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/cachedb/internal/config"
	"github.com/rickgao/cachedb/internal/database"
	"github.com/rickgao/cachedb/internal/model"
)

// Integration tests run only when a test database is configured:
//
//	CACHEDB_TEST_HOST=localhost CACHEDB_TEST_PORT=5432 \
//	CACHEDB_TEST_USER=cache CACHEDB_TEST_PASSWORD=pass \
//	CACHEDB_TEST_DATABASE=trading_cache go test ./internal/cachedb
func testDatabase(t *testing.T) *CacheDatabase {
	t.Helper()

	host := os.Getenv("CACHEDB_TEST_HOST")
	if host == "" {
		t.Skip("CACHEDB_TEST_HOST not set, skipping integration test")
	}
	port := 5432
	if p := os.Getenv("CACHEDB_TEST_PORT"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			t.Fatalf("bad CACHEDB_TEST_PORT: %v", err)
		}
		port = parsed
	}

	ctx := context.Background()
	db, err := Connect(ctx, Options{
		Host:     host,
		Port:     port,
		Username: os.Getenv("CACHEDB_TEST_USER"),
		Password: os.Getenv("CACHEDB_TEST_PASSWORD"),
		Database: os.Getenv("CACHEDB_TEST_DATABASE"),
	}, WithWriterConfig(config.WriterConfig{
		BatchSize:     10,
		FlushInterval: 20 * time.Millisecond,
	}))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.TeardownSchema(ctx); err != nil {
		t.Fatalf("TeardownSchema() error = %v", err)
	}
	if err := db.BootstrapSchema(ctx); err != nil {
		t.Fatalf("BootstrapSchema() error = %v", err)
	}
	return db
}

func drain(t *testing.T, db *CacheDatabase) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
}

func addCurrencies(t *testing.T, db *CacheDatabase, codes ...string) {
	t.Helper()
	ctx := context.Background()
	for _, code := range codes {
		typ := model.CurrencyTypeCrypto
		if code == "USD" {
			typ = model.CurrencyTypeFiat
		}
		c := model.NewCurrency(code, 8, 0, code, typ)
		if err := db.AddCurrency(ctx, c); err != nil {
			t.Fatalf("AddCurrency(%s) error = %v", code, err)
		}
	}
}

func TestIntegration_EmptyStore(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	general, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(general) != 0 {
		t.Errorf("Load() returned %d entries, want 0", len(general))
	}

	currencies, err := db.LoadCurrencies(ctx)
	if err != nil {
		t.Fatalf("LoadCurrencies() error = %v", err)
	}
	if len(currencies) != 0 {
		t.Errorf("LoadCurrencies() returned %d entries, want 0", len(currencies))
	}

	instruments, err := db.LoadInstruments(ctx)
	if err != nil {
		t.Fatalf("LoadInstruments() error = %v", err)
	}
	if len(instruments) != 0 {
		t.Errorf("LoadInstruments() returned %d entries, want 0", len(instruments))
	}
}

func TestIntegration_GeneralRoundTrip(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	value := []byte("test_value")
	if err := db.Add(ctx, "test_id", value); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	drain(t, db)

	general, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(general) != 1 {
		t.Fatalf("Load() returned %d entries, want 1", len(general))
	}
	if !bytes.Equal(general["test_id"], value) {
		t.Errorf("Load()[test_id] = %q, want %q", general["test_id"], value)
	}
}

func TestIntegration_UpsertLastWriteWins(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	if err := db.Add(ctx, "k", []byte("first")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := db.Add(ctx, "k", []byte("second")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	drain(t, db)

	general, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(general) != 1 {
		t.Fatalf("Load() returned %d entries, want 1", len(general))
	}
	if string(general["k"]) != "second" {
		t.Errorf("Load()[k] = %q, want %q", general["k"], "second")
	}
}

func TestIntegration_CurrencyOrdering(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	// Insert out of code order.
	addCurrencies(t, db, "USDT", "BTC", "USD", "ETH")
	drain(t, db)

	currencies, err := db.LoadCurrencies(ctx)
	if err != nil {
		t.Fatalf("LoadCurrencies() error = %v", err)
	}
	want := []string{"BTC", "ETH", "USD", "USDT"}
	if len(currencies) != len(want) {
		t.Fatalf("LoadCurrencies() returned %d entries, want %d", len(currencies), len(want))
	}
	for i, code := range want {
		if currencies[i].Code != code {
			t.Errorf("currencies[%d].Code = %q, want %q", i, currencies[i].Code, code)
		}
	}

	usd, err := db.LoadCurrency(ctx, "USD")
	if err != nil {
		t.Fatalf("LoadCurrency(USD) error = %v", err)
	}
	if usd == nil || usd.Type != model.CurrencyTypeFiat {
		t.Errorf("LoadCurrency(USD) = %+v, want fiat currency", usd)
	}

	absent, err := db.LoadCurrency(ctx, "XYZ")
	if err != nil {
		t.Fatalf("LoadCurrency(XYZ) error = %v", err)
	}
	if absent != nil {
		t.Errorf("LoadCurrency(XYZ) = %+v, want nil", absent)
	}
}

func integrationInstruments() []model.Instrument {
	common := func(pricePrec, sizePrec uint8) (model.Price, model.Quantity) {
		return model.NewPrice(1, pricePrec), model.NewQuantity(1, sizePrec)
	}
	p2, q6 := common(2, 6)
	_, q3 := common(2, 3)
	_, q5 := common(2, 5)
	_, q0 := common(2, 0)

	return []model.Instrument{
		model.CryptoFuture{
			InstrumentID:       model.InstrumentID{Symbol: "BTCUSDT_240628", Venue: "BINANCE"},
			RawSymbol:          "BTCUSDT_240628",
			Underlying:         "BTC",
			QuoteCurrency:      "USDT",
			SettlementCurrency: "USDT",
			ActivationNs:       1703462400000000000,
			ExpirationNs:       1719532800000000000,
			PricePrecision:     2,
			SizePrecision:      6,
			PriceIncrement:     p2,
			SizeIncrement:      q6,
			MakerFee:           "0.0002",
			TakerFee:           "0.0004",
			TsEvent:            1,
			TsInit:             1,
		},
		model.CryptoPerpetual{
			InstrumentID:       model.InstrumentID{Symbol: "ETHUSDT-PERP", Venue: "BINANCE"},
			RawSymbol:          "ETHUSDT",
			BaseCurrency:       "ETH",
			QuoteCurrency:      "USDT",
			SettlementCurrency: "USDT",
			PricePrecision:     2,
			SizePrecision:      3,
			PriceIncrement:     p2,
			SizeIncrement:      q3,
			MakerFee:           "0.0002",
			TakerFee:           "0.0004",
			TsEvent:            2,
			TsInit:             2,
		},
		model.CurrencyPair{
			InstrumentID:   model.InstrumentID{Symbol: "ETHUSDT", Venue: "BINANCE"},
			RawSymbol:      "ETHUSDT",
			BaseCurrency:   "ETH",
			QuoteCurrency:  "USDT",
			PricePrecision: 2,
			SizePrecision:  5,
			PriceIncrement: p2,
			SizeIncrement:  q5,
			MakerFee:       "0.001",
			TakerFee:       "0.001",
			TsEvent:        3,
			TsInit:         3,
		},
		model.Equity{
			InstrumentID:   model.InstrumentID{Symbol: "AAPL", Venue: "XNAS"},
			RawSymbol:      "AAPL",
			ISIN:           "US0378331005",
			Currency:       "USD",
			PricePrecision: 2,
			PriceIncrement: p2,
			SizeIncrement:  q0,
			MakerFee:       "0",
			TakerFee:       "0",
			TsEvent:        4,
			TsInit:         4,
		},
		model.FuturesContract{
			InstrumentID:   model.InstrumentID{Symbol: "ESZ4", Venue: "GLBX"},
			RawSymbol:      "ESZ4",
			AssetClass:     "INDEX",
			Underlying:     "ES",
			Currency:       "USD",
			ActivationNs:   1696291200000000000,
			ExpirationNs:   1734681600000000000,
			Multiplier:     model.NewQuantity(50, 0),
			PricePrecision: 2,
			PriceIncrement: model.NewPrice(25, 2),
			SizeIncrement:  q0,
			MakerFee:       "0",
			TakerFee:       "0",
			TsEvent:        5,
			TsInit:         5,
		},
		model.OptionsContract{
			InstrumentID:   model.InstrumentID{Symbol: "AAPL241220C00195000", Venue: "OPRA"},
			RawSymbol:      "AAPL  241220C00195000",
			AssetClass:     "EQUITY",
			Underlying:     "AAPL",
			OptionKind:     model.OptionKindCall,
			StrikePrice:    model.NewPrice(19500, 2),
			Currency:       "USD",
			ActivationNs:   1696291200000000000,
			ExpirationNs:   1734681600000000000,
			Multiplier:     model.NewQuantity(100, 0),
			PricePrecision: 2,
			PriceIncrement: p2,
			SizeIncrement:  q0,
			MakerFee:       "0",
			TakerFee:       "0",
			TsEvent:        6,
			TsInit:         6,
		},
	}
}

func TestIntegration_InstrumentRoundTrip(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	// Currencies first: instruments reference them by code.
	addCurrencies(t, db, "BTC", "ETH", "USD", "USDT")

	instruments := integrationInstruments()
	for _, inst := range instruments {
		if err := db.AddInstrument(ctx, inst); err != nil {
			t.Fatalf("AddInstrument(%s) error = %v", inst.ID(), err)
		}
	}
	drain(t, db)

	for _, want := range instruments {
		got, err := db.LoadInstrument(ctx, want.ID())
		if err != nil {
			t.Fatalf("LoadInstrument(%s) error = %v", want.ID(), err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("LoadInstrument(%s):\n got %+v\nwant %+v", want.ID(), got, want)
		}
	}

	// Full listing preserves insertion order across mixed kinds.
	loaded, err := db.LoadInstruments(ctx)
	if err != nil {
		t.Fatalf("LoadInstruments() error = %v", err)
	}
	if len(loaded) != len(instruments) {
		t.Fatalf("LoadInstruments() returned %d entries, want %d", len(loaded), len(instruments))
	}
	for i := range instruments {
		if loaded[i].ID() != instruments[i].ID() {
			t.Errorf("loaded[%d].ID() = %s, want %s", i, loaded[i].ID(), instruments[i].ID())
		}
	}

	absent, err := db.LoadInstrument(ctx, model.InstrumentID{Symbol: "NOPE", Venue: "NOWHERE"})
	if err != nil {
		t.Fatalf("LoadInstrument(absent) error = %v", err)
	}
	if absent != nil {
		t.Errorf("LoadInstrument(absent) = %+v, want nil", absent)
	}
}

func TestIntegration_ReferentialIntegrity(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	orphan := model.CurrencyPair{
		InstrumentID:   model.InstrumentID{Symbol: "FOOBAR", Venue: "TEST"},
		RawSymbol:      "FOOBAR",
		BaseCurrency:   "FOO", // never added
		QuoteCurrency:  "BAR", // never added
		PricePrecision: 2,
		PriceIncrement: model.NewPrice(1, 2),
		SizeIncrement:  model.NewQuantity(1, 0),
		MakerFee:       "0",
		TakerFee:       "0",
	}
	if err := db.AddInstrument(ctx, orphan); err != nil {
		t.Fatalf("AddInstrument() error = %v (orphan FK must fail at flush, not enqueue)", err)
	}
	drain(t, db)

	select {
	case failure := <-db.Failures():
		var cv *database.ConstraintViolation
		if !errors.As(failure.Err, &cv) {
			t.Errorf("failure.Err = %v, want *ConstraintViolation", failure.Err)
		}
		if failure.Identity != "instrument:FOOBAR.TEST" {
			t.Errorf("failure.Identity = %q, want %q", failure.Identity, "instrument:FOOBAR.TEST")
		}
	case <-time.After(time.Second):
		t.Fatal("no flush failure reported for orphan instrument")
	}

	instruments, err := db.LoadInstruments(ctx)
	if err != nil {
		t.Fatalf("LoadInstruments() error = %v", err)
	}
	if len(instruments) != 0 {
		t.Errorf("orphan instrument visible in LoadInstruments(): %d entries", len(instruments))
	}
}

func TestIntegration_ConcurrentAdds(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	addCurrencies(t, db, "ETH", "USDT")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair := model.CurrencyPair{
				InstrumentID:   model.InstrumentID{Symbol: fmt.Sprintf("PAIR%03d", i), Venue: "TEST"},
				RawSymbol:      fmt.Sprintf("PAIR%03d", i),
				BaseCurrency:   "ETH",
				QuoteCurrency:  "USDT",
				PricePrecision: 2,
				PriceIncrement: model.NewPrice(1, 2),
				SizeIncrement:  model.NewQuantity(1, 0),
				MakerFee:       "0",
				TakerFee:       "0",
			}
			if err := db.AddInstrument(ctx, pair); err != nil {
				t.Errorf("AddInstrument(%d) error = %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	drain(t, db)

	instruments, err := db.LoadInstruments(ctx)
	if err != nil {
		t.Fatalf("LoadInstruments() error = %v", err)
	}
	if len(instruments) != n {
		t.Errorf("LoadInstruments() returned %d entries, want %d (lost or duplicated writes)", len(instruments), n)
	}

	seen := make(map[model.InstrumentID]bool, n)
	for _, inst := range instruments {
		if seen[inst.ID()] {
			t.Errorf("duplicate instrument %s", inst.ID())
		}
		seen[inst.ID()] = true
	}
}

func TestIntegration_Snapshot(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	if err := db.Add(ctx, "engine_state", []byte{1}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	addCurrencies(t, db, "ETH", "USDT")
	drain(t, db)

	snap, err := db.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.General) != 1 {
		t.Errorf("snap.General has %d entries, want 1", len(snap.General))
	}
	if len(snap.Currencies) != 2 {
		t.Errorf("snap.Currencies has %d entries, want 2", len(snap.Currencies))
	}
	if len(snap.Instruments) != 0 {
		t.Errorf("snap.Instruments has %d entries, want 0", len(snap.Instruments))
	}
}
