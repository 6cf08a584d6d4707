// Package portalauth holds the session and access-control core of the
// placement portal dashboard.
//
// A [SessionStore] owns the view's session token. The token is mirrored in
// durable key-value storage ([storage.Storage]) together with the user's role
// and display name. An [AccessGuard] gates protected routes on the store.
//
// # Views
//
// Every SessionStore is one view: a browser tab, a CLI invocation, one HTTP
// server process. Views sharing a backend see each other's Save and Clear
// calls through [storage.Watcher]; propagation is eventual, while within one
// view Save followed by IsLoggedIn never observes stale state.
//
// # What this package must NOT do
//
//   - Write the persisted keys outside Save and Clear.
//   - Cache the role. Role predicates read storage on every call.
//   - Fail when no durable storage exists. [storage.Null] degrades every
//     operation to "no session".
//
// # Performance contract
//
// IsLoggedIn and CanActivate are in-memory reads. Save, Clear and the role
// predicates are allowed one storage round-trip per key.
package portalauth
