// Package login is the headless login and registration flow of the portal.
//
// A [Flow] validates the form, calls the auth service, hands a successful
// login to [portalauth.SessionStore.OnAuthenticated] and reports the user
// facing messages to a [Notifier]. Rendering the messages is up to the
// caller.
package login
