// Package authapi is the client for the portal's authentication service.
//
// The service answers POST {base}/login with {token, role?, name?} and
// POST {base}/register with a status only. Failures are mapped to sentinel
// errors so callers can tell "not found" from "invalid credentials" from
// everything else.
package authapi
