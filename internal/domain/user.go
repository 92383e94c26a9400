package domain

// User is the authenticated identity as returned by the profile and
// registration endpoints. Fields beyond these are not interpreted here.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Tokens is the opaque credential bundle from the auth endpoints.
// Only Access is ever read, and only to build the Authorization header.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
