package model

import "time"

// User : signer identity as seen by the signing flow (accounts are managed elsewhere)
type User struct {
	UUID      string    `db:"uuid" json:"uuid"`
	Login     string    `db:"login" json:"login"`
	FullName  string    `db:"full_name" json:"full_name"`
	Position  string    `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DisplayName : full name when present, login otherwise
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Login
}
