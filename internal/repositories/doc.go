// Package repositories implements storage for blend sessions and server-side credentials.
//
// Two backends satisfy the same interfaces:
//   - [MemorySessionStore], [MemoryCredentialStore] : process-local maps guarded by a mutex
//   - [SessionRepository], [CredentialRepository] : SQLite tables created by the shared migrations
//
// Every entry carries an expiry. Reads treat expired entries as absent, and Evict removes them
// so a long-running server does not grow without bound.
//
// [Open] builds the pair selected by configuration.
package repositories
