// Package models defines the domain types and persistence interfaces for Blendify.
//
// Provider data:
//   - [Track], [Artist], [Album] : pass-through of the provider's track objects
//   - [User] : the provider account acting on a request
//   - [Playlist], [PlaylistRequest] : playlists created on the provider
//
// Server-side state:
//   - [Session] : a blend correlating two participants' top tracks under one shareable id
//   - [Credential] : a provider token held server-side, referenced by an opaque cookie value
//
// [SessionStore] and [CredentialStore] describe the storage operations the rest of the
// application relies on; implementations live in the repositories package.
package models
