// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation for every route except the public ones.
//   - rayid: tags each request with a RayID, kept in the fiber locals under
//     "ray_id" and echoed in the X-Ray-ID header for tracing.
//
// The start command registers rayid first so every log line of a request
// carries the id.
package middleware
