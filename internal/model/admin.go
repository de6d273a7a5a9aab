package model

import "time"

// AdminID uniquely identifies an administrator
type AdminID string

// Admin is an operator allowed to change room status with their fingerprint
type Admin struct {
	ID            AdminID
	Username      string
	Email         string
	FingerprintID Identity // Identity enrolled on the sensors for this admin
	IsSuperAdmin  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AdminCredentials holds login data for an Admin
// Stored separately so the hash never travels with the profile
type AdminCredentials struct {
	AdminID      AdminID
	Username     string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
