// Package flows contains the orchestrators behind Engine.Login and
// Engine.Register.
//
// Each flow function accepts a typed dependency struct whose fields are
// plain functions and host-level sentinel errors, so flows can be tested
// with fakes and never import the root package.
//
// # Architecture boundaries
//
// Flows coordinate validation, credential lookup, hashing, audit and
// metrics. They do NOT own any of these resources; ownership stays with the
// Engine. Register is the exception that opens its own transaction through
// storage.WithTx, because the transaction boundary is part of the protocol.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root package.
//   - Log or audit a raw password, hash or salt.
package flows
