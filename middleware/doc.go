// Package middleware exposes HTTP adapters for the portal's route guard and
// role gates.
//
// # Guards
//
//   - [Guard]: runs [portalauth.AccessGuard] and redirects to the login route
//     when the view has no session.
//   - [RequireAdminView]: 403 unless the stored role is TPC, DEPT_HEAD or ADMIN.
//   - [RequireAdminOnly]: 403 unless the stored role is ADMIN.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into SessionStore and AccessGuard
// calls. Navigation becomes an HTTP redirect bound to the request.
//
// # What this package must NOT do
//
//   - Read or write session storage directly.
//   - Make access decisions beyond what the guard and role predicates report.
package middleware
