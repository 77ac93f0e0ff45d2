// Package authcore authenticates end users and authorizes administrative
// actions for a content-publishing site.
//
// The [Engine] is built once through [Builder] and is safe to call from
// multiple goroutines. It exposes login, registration, the single-use CSRF
// token lifecycle, the admin authorization gate and the server-side session
// that ties them together.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// result types and sentinel errors. Primitives live in focused subpackages
// (validate, password, csrf, session, admin, storage) and flow orchestration,
// audit dispatch, logging and metrics live under internal/.
//
// # What this package must NOT do
//
//   - Build SQL from untrusted input; every query binds its values.
//   - Return infrastructure detail to callers. Errors crossing the Engine
//     boundary are the sentinels below, and [PublicMessage] is the only text
//     meant for end users.
//   - Grant elevated access from anything but the verified session identity
//     and the stored admin record.
package authcore
