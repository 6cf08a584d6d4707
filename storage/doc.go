// Package storage provides the durable key-value capability behind a portal
// session, plus change notifications used for cross-view synchronisation.
//
// # Backends
//
//   - [Null]: the null object for contexts with no durable storage. Reads are
//     always absent, writes are dropped, [Null.Available] reports false.
//   - [Memory]: in-process shared map. Several views in one process share one
//     [Memory] and observe each other's writes through [Memory.Watch].
//   - [Redis]: go-redis backed; every write publishes a [Change] on a pub/sub
//     channel so views in other processes can refresh.
//   - [File]: one JSON document on disk, watched with fsnotify.
//
// # Architecture boundaries
//
// This package stores plain strings under plain keys. It does NOT know which
// keys hold a token, a role or a display name; that mapping belongs to the
// portalauth SessionStore.
//
// # What this package must NOT do
//
//   - Import portalauth (no upward imports).
//   - Cache values between calls. Every Get reaches the backend so values
//     written by other views are visible immediately.
package storage
