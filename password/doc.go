// Package password hashes and verifies passwords with Argon2id against an
// external per-user salt.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The salt is generated once per user by [GenerateSalt], stored beside the
// user record and passed to both [Hasher.Hash] and [Hasher.Verify]. Verify
// rejects a hash whose embedded salt differs from the stored one.
//
// This package never stores passwords and never logs them. Password policy is
// enforced by package validate before hashing.
package password
