// Package models defines server-side data models persisted in the database
// and the preview descriptor issued to clients.
package models

import "time"

// Resource is a stored document known to the backend. Binary resources
// live in object storage under StorageKey; hyperlinks carry LinkURL instead.
type Resource struct {
	ID           string
	Name         string
	DeclaredType string
	StorageKey   string
	LinkURL      string
	CreatedAt    time.Time
}

// RefreshToken is an opaque token that may be exchanged for a new preview
// access token for ResourceID until Expires.
type RefreshToken struct {
	ID         string
	ResourceID string
	Token      string
	Expires    time.Time
	CreatedAt  time.Time
}
