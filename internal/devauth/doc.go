// Package devauth is a development stand-in for the portal's authentication
// service. It serves POST /login and POST /register with the same payloads
// and status codes as the real service, keeps users in Redis, hashes
// passwords with Argon2id and hands out signed session tokens.
//
// It backs the demo server, the CLI's --dev-auth mode and integration tests.
// It is not a production identity provider.
package devauth
