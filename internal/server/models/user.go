package models

// User is a server account. PasswordHash holds a bcrypt hash, never the
// plain password.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
}
