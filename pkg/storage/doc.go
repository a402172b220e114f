// Package storage defines the durable key/value contract the settings store
// persists through, plus in-memory, SQLite and Postgres implementations.
//
// Responsibilities:
//   - A Backend only reads and writes opaque blobs in named slots. The settings
//     blob, the defaults blob and every backup are separate slots.
//   - Encoding, caching and validation stay in the settings package.
//   - Writes replace the whole slot; there is no partial update and no
//     compare-and-swap, so concurrent writers race and the last write wins.
//
// Data flow:
//
//	settings.Store -> Codec.Marshal -> Backend.Write(key, blob)
//	settings.Store <- Codec.Unmarshal <- Backend.Read(key)
package storage
