package models

const (
	AdminID   = "admin-1"
	RoleAdmin = "admin"
)

// AdminCredential is the single static login read from the credentials file.
// When PasswordHash is set it is a bcrypt hash and Password is ignored.
type AdminCredential struct {
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Name         string `json:"name"`
}

// Principal is the identity carried by a session token.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
