package domain

import "github.com/google/uuid"

// Credentials identify a caller: either a login and password pair or a
// session token issued by a successful login.
type Credentials struct {
	Login    string
	Password string
	Session  uuid.UUID
}

// NewLoginCredentials builds credentials from a login and password.
func NewLoginCredentials(login, password string) Credentials {
	return Credentials{Login: login, Password: password}
}

// NewSessionCredentials builds credentials from an issued session token.
func NewSessionCredentials(token uuid.UUID) Credentials {
	return Credentials{Session: token}
}

// IsSession reports whether the credentials carry a session token.
func (c Credentials) IsSession() bool { return c.Session != uuid.Nil }

// String never includes the password.
func (c Credentials) String() string {
	if c.IsSession() {
		return "session:" + c.Session.String()
	}
	return "login:" + c.Login
}
