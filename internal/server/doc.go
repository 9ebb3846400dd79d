// Package server provides HTTP routing, middleware, and the now-playing endpoint.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Middleware Chain
//
// [New] installs, outermost first:
//   - [RequestLogger] : request IDs and access logs
//   - [Recoverer] : panics become a generic 500, logged with the request ID
//   - [CORS] : applies the [OriginGate]
//   - [RateLimit] : per-client token buckets, only when configured
//
// # Origin Gate
//
// [OriginGate] allows requests without an Origin header, http://localhost on any port, and
// https://<subdomains>.<base-domain> on any port. A denied origin is not rejected: the response is served
// without CORS headers and the browser keeps it from page scripts.
//
// # Now Playing
//
// [NowPlayingHandler] serves GET /api/now-playing. Every request triggers one token exchange and at most one
// playback query through [services.Service]. Upstream playback errors arrive as a "not playing" snapshot;
// every other failure is logged and answered with {"error": "Internal server error"}.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
