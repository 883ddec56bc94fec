// Package server provides HTTP routing, middleware and the library API handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering, so route
// patterns may use path wildcards.
//
// # Endpoints
//
//	GET /api/export/{id}/{format}     → collection download (csv, m3u, json)
//	GET /api/collections              → collections with track counts
//	GET /api/collections/{id}/tracks  → one collection and its ordered tracks
//	GET /api/tracks                   → filtered and sorted library tracks
//	GET /health                       → liveness, connectivity and last sync status
//
// /api/tracks accepts genre, key, bpmMin, bpmMax, q, liked, sort and dir query parameters.
// Errors are JSON objects of the form {"error": "..."}.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
