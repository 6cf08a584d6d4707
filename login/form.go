package login

import (
	"strings"

	"github.com/MrEthical07/portalauth"
)

// MinPasswordLength is the shortest password the form submits.
const MinPasswordLength = 6

// Form is the login / registration form. CandidateName and AccessLevel are
// only sent when registering.
type Form struct {
	CandidateName string
	Email         string
	Password      string
	AccessLevel   portalauth.Role
}

// EmailValid is a loose shape check: the trimmed address contains "@" and ".".
func (f Form) EmailValid() bool {
	e := strings.TrimSpace(f.Email)
	return strings.Contains(e, "@") && strings.Contains(e, ".")
}

// CanSubmit reports whether the form may be sent.
func (f Form) CanSubmit() bool {
	return f.EmailValid() && len(f.Password) >= MinPasswordLength
}

// Level returns the chosen registration access level. Anything outside
// [portalauth.RegistrationRoles] falls back to STUDENT.
func (f Form) Level() portalauth.Role {
	for _, r := range portalauth.RegistrationRoles {
		if f.AccessLevel == r {
			return r
		}
	}
	return portalauth.RoleStudent
}

// DisplayName is the name used for a demo session: the candidate name, else
// the email, else "Demo User".
func (f Form) DisplayName() string {
	switch {
	case f.CandidateName != "":
		return f.CandidateName
	case f.Email != "":
		return f.Email
	default:
		return "Demo User"
	}
}
