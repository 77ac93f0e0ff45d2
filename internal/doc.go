// Package internal holds the pieces of authcore that are private to the
// module.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: login and registration orchestrators used by the Engine
//   - httpapi: JSON HTTP handlers served by authcorectl
//   - logging: slog setup with trace correlation and oops-aware error logging
//   - metrics: Prometheus collectors for Engine operations
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
