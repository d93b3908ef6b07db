// Package codec maps domain entities to and from their relational row
// representations.
//
// Instruments are polymorphic: all six variants share one table, tagged with a
// kind discriminator. Encoding populates only the columns relevant to the
// variant; decoding switches on the discriminator and must reconstruct the
// original variant exactly (decode(encode(x)) == x).
package codec
