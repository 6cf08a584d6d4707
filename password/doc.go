// Package password hashes account passwords for the development auth service
// with Argon2id.
//
// Hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.NeedsRehash] reports hashes made with weaker parameters than the
// current configuration.
//
// This package never stores passwords and never logs them.
package password
