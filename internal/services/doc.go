// Package services implements the outbound HTTP clients used by Blendify.
//
// # Provider
//
// [SpotifyService] implements [OAuthService]: it builds the authorization URL, exchanges
// authorization codes for tokens through [oauth2.Config], and wraps the Web API calls the
// blend flow needs (current user, top tracks, create playlist, add tracks).
//
// Every call carries the caller's context, a per-request timeout, and waits on a shared
// token-bucket limiter before it is sent. Calls are never retried.
//
// # Blendify API
//
// [APIService] is a small client for a running Blendify server, used by the watch command
// to poll a session.
//
// # Error Handling
//
// Non-2xx responses are returned as [*APIError], which wraps [shared.ErrAPIRequest]:
//   - errors.Is(err, shared.ErrAPIRequest) : any upstream failure
//   - errors.As(err, &apiErr) : status code and provider message
//   - [shared.ErrSessionNotFound] : [APIService.Session] on 404
package services
