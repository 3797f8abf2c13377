// Package tasks orchestrates the blend flow independently of HTTP.
//
// # Blend Engine
//
// [BlendEngine] implements the four blend operations on top of a [services.Service] and a
// [models.SessionStore]:
//
//  1. [BlendEngine.CreateBlend] : first participant
//     - Fetches the caller's top tracks
//     - Allocates a short session id, retrying on collision
//
//  2. [BlendEngine.JoinBlend] : second participant
//     - Fetches the caller's top tracks
//     - Attaches them and the merged list to the session in one atomic update
//
//  3. [BlendEngine.Session] : read-only lookup
//
//  4. [BlendEngine.SavePlaylist] : writes the merged list to the caller's account
//
// # Watching
//
// [Watcher] polls a running server until both participants are present, backing off between
// attempts with retry-go. Each state change is published as a [WatchUpdate] without blocking.
//
// # Expiry
//
// [Janitor] periodically evicts expired sessions and credentials.
package tasks
