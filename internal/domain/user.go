package domain

import "time"

// User описывает покупателя
type User struct {
	ID           int64
	Name         string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func NewUser(name, email, username, passwordHash string) *User {
	return &User{
		Name:         name,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
	}
}
