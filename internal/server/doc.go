// Package server provides HTTP routing, middleware, and the OAuth and JSON handlers of the blend service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [BasicRouter] uses [http.ServeMux] internally. Middleware wraps the whole mux, first added runs
// outermost, so preflight requests and unmatched routes still pass through CORS and logging.
//
// # OAuth Handler
//
// [AuthHandler] implements the authorization code flow:
//
//	GET /login?sessionId=   → state cookie, 302 to the provider
//	GET /callback           → state check, code exchange, credential cookie, optional join
//
// The state sent to the provider is the cookie value, optionally followed by "--" and the blend
// session id. Tokens are kept server-side in a [models.CredentialStore] and referenced by an
// HttpOnly cookie. Appending the raw token to the redirect is opt-in via server.expose_token.
//
// # JSON API
//
// [APIHandler] serves POST /create-blend, GET /session/{sessionId}, POST /save-playlist and GET /health.
// Callers authenticate with a bearer token or the credential cookie, bearer first.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
