package model

import "time"

// Client is a tenant bucket grouping credentials. CredentialCount is
// maintained by the store alongside credential inserts and deletes.
type Client struct {
	ID              string
	Name            string
	Description     string
	Logo            string
	Initials        string
	Color           string
	CredentialCount int
	LastAccessed    time.Time
	CreatedAt       time.Time
}
