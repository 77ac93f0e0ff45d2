// Package session keeps server-side session state for authenticated users.
//
// A session is a small field map keyed by an opaque id: the owning user id
// and username, the creation time, and one CSRF token record per form. The
// [Store] interface has a Redis implementation ([RedisStore]) and an
// in-process one ([MemoryStore]). Both expire idle sessions and both offer
// [Store.Update], an atomic read-modify-write of a single field that the CSRF
// manager relies on to make token validation single-use under concurrency.
//
// The session id travels to the client inside a signed ticket
// ([TicketSigner]); a ticket whose signature does not verify is rejected
// before any store lookup.
package session
