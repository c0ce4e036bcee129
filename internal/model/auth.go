package model

import (
	"github.com/google/uuid"
)

// AuthRequest types
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name       string     `json:"name" binding:"required" validate:"required"`
	Email      string     `json:"email" binding:"required,email" validate:"required,email"`
	Password   string     `json:"password" binding:"required,min=6" validate:"required,min=6"`
	Role       Role       `json:"role" binding:"required,oneof=HOSPITAL_ADMIN DOCTOR NURSE AMBULANCE_DRIVER" validate:"required,oneof=HOSPITAL_ADMIN DOCTOR NURSE AMBULANCE_DRIVER"`
	HospitalID *uuid.UUID `json:"hospital_id"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// AuthResponse types
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *UserProfile `json:"user"`
}

// Principal is the authenticated caller, passed explicitly into every
// mutating engine operation.
type Principal struct {
	UserID     uuid.UUID  `json:"user_id"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	HospitalID *uuid.UUID `json:"hospital_id,omitempty"`
}

// SystemPrincipal is used by seeders and background jobs.
var SystemPrincipal = Principal{Email: "system", Role: RoleHospitalAdmin}

func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func (p Principal) IsSystem() bool {
	return p.UserID == uuid.Nil
}

// Actor renders the principal for logs.
func (p Principal) Actor() string {
	if p.IsSystem() {
		return "system"
	}
	return p.UserID.String()
}
