// Package web implements the server-rendered Novi front end.
//
// # Architecture
//
// Every page is rendered with html/template from the embedded templates directory. Each
// browser is identified by a signed client cookie ([server.ClientIdentity]); its state lives
// in a [ClientState] held by the [Registry]:
//
//   - an [auth.Store], the single source of truth for who is signed in
//   - a [services.Client] bound to the client's storage scope
//   - [loader.Loader] instances for the content list and the content item being viewed
//   - the draft produced by the last PDF upload, until it is saved or discarded
//
// # Routes
//
//	GET       /                          → home (public shell)
//	GET       /home                      → home (public shell)
//	GET|POST  /login                     → login form
//	GET|POST  /signup                    → signup form
//	POST      /logout                    → sign out
//	GET       /dashboard                 → totals and recent content (guarded)
//	GET|POST  /create-content            → upload a PDF and preview the result (guarded)
//	POST      /create-content/save       → store the draft (guarded)
//	POST      /create-content/discard    → drop the draft (guarded)
//	GET       /create-content/preview    → sandboxed draft body (guarded)
//	GET       /my-contents               → content list with ?q= filter (guarded)
//	GET       /content/{contentId}       → content view (guarded)
//	GET|POST  /content/{contentId}/edit  → content editor (guarded)
//	POST      /content/{contentId}/delete → delete content (guarded)
//	GET       /content/{contentId}/frame → sandboxed content body (guarded)
//	GET       /preload?to=<path>         → start loading the data of a page about to be visited
//	GET       /static/...                → embedded assets
//
// Anything else renders the not-found page.
//
// # Bodies
//
// Generated HTML is never inlined into a page. It is served from its own frame endpoint with
// "Content-Security-Policy: sandbox allow-scripts", so scripts in it run without access to the
// application's origin.
//
// # Preloading
//
// Links marked data-preload call /preload on hover. The target's data is fetched in the
// background through the client's loaders; a navigation reuses it only when it is for the same
// key and younger than the configured preload stale time. A stale time of zero disables reuse.
package web
