// Package storage implements durable per-client key/value slots.
//
// A slot is the server-side equivalent of a browser storage key: the auth store keeps the
// session record under [KeyUser] and the API client keeps its token under [KeyToken].
//
// Key Implementations:
//   - [MemoryStorage] : process-local slots, used by tests and one-shot commands
//   - [SQLiteStorage] : client_storage table, scoped per client id with [SQLiteStorage.Scope]
//   - [ClientRepository] : known client identities with last-seen tracking
package storage
