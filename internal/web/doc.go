// Package web renders the server-side pages of the blend flow.
//
// Routes
//
//	GET  /                        → login link, or the create form when logged in
//	POST /blend                   → create a blend, 303 to its page
//	GET  /blend/{sessionId}       → waiting view with share and join links, or the merged list
//	POST /blend/{sessionId}/save  → save the merged list, 303 to the playlist
//
// The waiting view refreshes itself with a meta refresh whose delay doubles on every
// attempt up to a ceiling, and stops once the attempt budget is spent.
//
// Templates are embedded and parsed once per page on top of a shared layout.
package web
