// Package server provides HTTP routing, middleware, and lifecycle helpers for the web front end.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method-qualified patterns and remembers route
// names so [BasicRouter.Match] can tell which route serves a request.
//
// # Route Tree
//
// Pages are declared as a [Route] tree: layout nodes carry shared chrome, leaves carry handlers.
// [Compile] flattens the tree onto a [Router], wrapping guarded leaves with the supplied
// guard and installing the not-found handler as the catch-all, so every path resolves to exactly
// one route. Handlers read their [RouteInfo] (including the inherited layout) with [RouteFrom].
//
// # Guard
//
// [Guard] checks the requesting client's [Authenticator] on every request and redirects
// unauthenticated visitors to the login page. It is a UX affordance; the API enforces access.
//
// # Client Identity
//
// [ClientIdentity] keeps a random client id in a signed gorilla/sessions cookie. The id scopes
// the durable storage that holds the client's token and cached user record.
package server
