// Package server provides HTTP routing, middleware, and session-backed token
// storage for the web interface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Middleware
//
// The stock middleware stack, outermost first:
//   - [Recover] : panics become 500 responses, the request never crashes
//   - [Logging] : method/path/status/duration per request
//   - [HTTPSRedirect] : production-only redirect for plain-http requests
//   - [CSPNonce] : per-request nonce in the Content-Security-Policy header,
//     exposed to templates via [NonceFrom]
//
// # Session Token Store
//
// [TokenStore] abstracts the per-browser-session OAuth token cache
// (get/set/clear plus the pending authorization's state nonce). The
// production implementation, [SessionStore], signs a cookie with
// gorilla/sessions; tests substitute an in-memory store. Handlers treat a
// missing or corrupt token identically: redirect to the provider's
// authorization URL.
package server
