// Package middleware exposes net/http guards built on authcore.Engine.
//
// # Guards
//
//   - [RequireSession] resolves the session ticket from the Authorization
//     header or the session cookie and stores the session in the context.
//   - [RequireCSRF] consumes the single-use token for one form.
//   - [RequireAdmin] checks the stored admin role of the session's user.
//
// RequireCSRF and RequireAdmin must run inside RequireSession.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself.
//
// # What this package must NOT do
//
//   - Read a user id or role from request input. Identity comes only from
//     the resolved session.
//   - Put anything but authcore.PublicMessage text in a response body.
package middleware
