// Package swath defines the canonical, format-independent ping record.
//
// Every format driver normalizes its vendor layout into a Ping on read and
// builds its layout from a Ping on write. Consumers (editors, cleaners,
// exporters) only ever see these types, never a driver's own structs.
package swath
