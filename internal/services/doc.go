// Package services implements the client for the novi content API gateway.
//
// # Client Interface
//
// [Client] is everything the front end needs from the backend: authentication, content
// CRUD, and PDF conversion. Pages, the auth store, and the CLI depend on the interface;
// tests substitute a double.
//
// # HTTP Implementation
//
// [APIService] is the shared transport: base URL, [http.Client], a [rate.Limiter] sized to
// the gateway's quota, and per-request timeouts (uploads get a longer one).
// [APIService.Bind] attaches it to a client's [storage.Storage], producing an [APIClient]
// that owns the token slot.
//
// The token is persisted as an [oauth2.Token]. Authenticated requests go through
// [oauth2.NewClient] with a static token source, which sets the bearer header.
// Expiry is never enforced locally; an expired token surfaces as a 401 from the gateway.
//
// # Error Handling
//
// Every failure is an [APIError] that unwraps to one of:
//   - [shared.ErrAuthentication] : rejected credentials or a missing/expired token
//   - [shared.ErrValidation] : the backend rejected the input
//   - [shared.ErrNotFound] : content absent or not owned by the caller
//   - [shared.ErrTransport] : network failure or a 5xx from the gateway
//
// Nothing is retried.
package services
