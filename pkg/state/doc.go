// Package state defines the persistence-facing contract behind an options
// store: a Backend holds the durable values and schema defaults of one schema
// and tells every watcher which keys changed.
//
// Responsibilities:
//   - Backend only stores and reports values for a single schema. It does not
//     know about logical option names, kinds or debouncing.
//   - Registry resolves store selectors to Backends. An unknown selector is an
//     error, never a fallback to another schema.
//   - Several option stores may hold the same Backend at once (the running
//     extension and its preferences dialog); each registers its own watch and
//     releases it on close.
//
// Data flow:
//
//	opts.Store.Set -> pending buffer -> (debounce) -> Backend.Write -> watchers
//
// Implementations in this module: MemoryBackend (in-process), filestore (TOML
// file per schema) and sqlitestore (one SQLite table for all schemas).
package state
