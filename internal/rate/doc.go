// Package rate throttles failed logins against the development auth service.
//
// Counters are fixed windows in Redis: INCR, and EXPIRE on the first failure of
// a window only. One counter per email, and optionally one
// per client IP.
package rate
