package users

import "time"

type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID              int64
	Username        string
	Email           string
	PasswordHash    string
	Role            Role
	ActivationToken string
	Activated       bool
	ResetToken      string
	ResetSentAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
