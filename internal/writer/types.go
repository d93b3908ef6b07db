package writer

import (
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/cachedb/internal/model"
)

// Config contains the flush policy for the cache writer.
type Config struct {
	// BatchSize is the number of operations to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the initial capacity of the operation queue.
	BufferSize int

	// MaxRetries is how many times a transiently failed operation is
	// requeued before being reported and dropped.
	MaxRetries int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: 100 * time.Millisecond,
		BufferSize:    4096,
		MaxRetries:    3,
	}
}

// OpKind identifies the entity an operation targets.
type OpKind uint8

const (
	OpGeneral OpKind = iota + 1
	OpCurrency
	OpInstrument
)

// Op is a single buffered upsert. Each op carries a uuid assigned at enqueue
// time so flush failures can be correlated in logs and on the failure channel.
type Op struct {
	ID   uuid.UUID
	Kind OpKind

	// OpGeneral payload
	Key   string
	Value []byte

	// OpCurrency payload
	Currency model.Currency

	// OpInstrument payload
	Instrument model.Instrument

	attempts int
}

// GeneralOp builds an upsert of a generic key/value object.
func GeneralOp(key string, value []byte) Op {
	return Op{ID: uuid.New(), Kind: OpGeneral, Key: key, Value: value}
}

// CurrencyOp builds an upsert of a currency.
func CurrencyOp(c model.Currency) Op {
	return Op{ID: uuid.New(), Kind: OpCurrency, Currency: c}
}

// InstrumentOp builds an upsert of an instrument.
func InstrumentOp(inst model.Instrument) Op {
	return Op{ID: uuid.New(), Kind: OpInstrument, Instrument: inst}
}

// Identity names the physical row the op targets, for logging.
func (o Op) Identity() string {
	switch o.Kind {
	case OpGeneral:
		return "general:" + o.Key
	case OpCurrency:
		return "currency:" + o.Currency.Code
	case OpInstrument:
		return "instrument:" + o.Instrument.ID().String()
	default:
		return "unknown"
	}
}

// FlushFailure reports an operation that could not be persisted.
type FlushFailure struct {
	OpID     uuid.UUID
	Identity string
	Err      error
}

// Metrics holds writer counters.
type Metrics struct {
	Inserts int64
	Errors  int64
	Retries int64
	Flushes int64
}
