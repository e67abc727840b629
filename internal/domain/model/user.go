package model

import "time"

// User is an authenticated principal. PasswordHash never leaves the server.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Avatar       string
	CreatedAt    time.Time
}
