package model

import (
	"context"
	"time"
)

// Profile holds the birth details collected when a session starts.
type Profile struct {
	DOB  string `json:"dob"`
	TOB  string `json:"tob"`
	City string `json:"city"`
}

// ChatSession is the process-local view of a user session.
type ChatSession struct {
	ID        string    `json:"session_id"`
	Profile   Profile   `json:"profile"`
	StartedAt time.Time `json:"started_at"`
}

// PasswordRecord is the overridable access-password document.
type PasswordRecord struct {
	Value     string    `json:"value"`
	Algo      string    `json:"algo"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppConfigStore holds application-level documents such as the password override.
type AppConfigStore interface {
	GetPassword(ctx context.Context) (PasswordRecord, bool, error)
	SetPassword(ctx context.Context, record PasswordRecord) error
}
