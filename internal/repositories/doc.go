// Package repositories implements persistence for sessions and run history.
//
// Key Implementations:
//   - [SessionRepository] : SQLite-backed [models.SessionStore]
//   - [RedisSessionStore] : Redis-backed [models.SessionStore] with key TTLs
//   - [MemorySessionStore] : process-local [models.SessionStore] for tests and single-user CLI use
//   - [RunRepository] : SQLite-backed [models.RunStore]
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
