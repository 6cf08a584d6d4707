// Package jwt issues and parses the signed session tokens handed out by the
// portal's development auth service. A token names the user, their portal
// role and display name.
package jwt
