package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleHospitalAdmin   Role = "HOSPITAL_ADMIN"
	RoleDoctor          Role = "DOCTOR"
	RoleNurse           Role = "NURSE"
	RoleAmbulanceDriver Role = "AMBULANCE_DRIVER"
)

// StaffRoles are the roles listed by the staff directory.
var StaffRoles = []Role{RoleDoctor, RoleNurse, RoleAmbulanceDriver}

func (r Role) Valid() bool {
	switch r {
	case RoleHospitalAdmin, RoleDoctor, RoleNurse, RoleAmbulanceDriver:
		return true
	}
	return false
}

// User represents a system user
type User struct {
	Base
	Name                   string     `json:"name" db:"name"`
	Email                  string     `json:"email" db:"email"`
	PasswordHash           string     `json:"-" db:"password_hash"`
	Role                   Role       `json:"role" db:"role"`
	EmailVerified          bool       `json:"email_verified" db:"email_verified"`
	VerificationCode       *string    `json:"-" db:"verification_code"`
	VerificationCodeExpiry *time.Time `json:"-" db:"verification_code_expiry"`
	ResetCode              *string    `json:"-" db:"reset_code"`
	ResetCodeExpiry        *time.Time `json:"-" db:"reset_code_expiry"`
	HospitalID             *uuid.UUID `json:"hospital_id,omitempty" db:"hospital_id"`
}

func (u *User) Clone() *User {
	c := *u
	c.VerificationCode = cloneString(u.VerificationCode)
	c.VerificationCodeExpiry = cloneTime(u.VerificationCodeExpiry)
	c.ResetCode = cloneString(u.ResetCode)
	c.ResetCodeExpiry = cloneTime(u.ResetCodeExpiry)
	c.HospitalID = cloneUUID(u.HospitalID)
	return &c
}

// SetVerificationCode stores a pending email verification code.
func (u *User) SetVerificationCode(code string, expiry time.Time) {
	u.VerificationCode = &code
	u.VerificationCodeExpiry = &expiry
}

func (u *User) SetResetCode(code string, expiry time.Time) {
	u.ResetCode = &code
	u.ResetCodeExpiry = &expiry
}

// ClearExpiredCodes drops verification and reset codes whose expiry is
// before now. It reports whether anything changed.
func (u *User) ClearExpiredCodes(now time.Time) bool {
	changed := false
	if u.VerificationCodeExpiry != nil && u.VerificationCodeExpiry.Before(now) {
		u.VerificationCode = nil
		u.VerificationCodeExpiry = nil
		changed = true
	}
	if u.ResetCodeExpiry != nil && u.ResetCodeExpiry.Before(now) {
		u.ResetCode = nil
		u.ResetCodeExpiry = nil
		changed = true
	}
	return changed
}

// CreateUserRequest represents admin user creation parameters
type CreateUserRequest struct {
	Name       string     `json:"name" binding:"required" validate:"required"`
	Email      string     `json:"email" binding:"required,email" validate:"required,email"`
	Password   string     `json:"password" binding:"required,min=6" validate:"required,min=6"`
	Role       Role       `json:"role" binding:"required,oneof=HOSPITAL_ADMIN DOCTOR NURSE AMBULANCE_DRIVER" validate:"required,oneof=HOSPITAL_ADMIN DOCTOR NURSE AMBULANCE_DRIVER"`
	HospitalID *uuid.UUID `json:"hospital_id"`
}

// UpdateUserRequest represents user update parameters. An empty password
// keeps the current one.
type UpdateUserRequest struct {
	Name       string     `json:"name" binding:"required" validate:"required"`
	Role       Role       `json:"role" binding:"required,oneof=HOSPITAL_ADMIN DOCTOR NURSE AMBULANCE_DRIVER" validate:"required,oneof=HOSPITAL_ADMIN DOCTOR NURSE AMBULANCE_DRIVER"`
	HospitalID *uuid.UUID `json:"hospital_id"`
	Password   string     `json:"password" binding:"omitempty,min=6" validate:"omitempty,min=6"`
}

// UserProfile is the public view returned by login and the profile endpoint.
type UserProfile struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          Role       `json:"role"`
	HospitalID    *uuid.UUID `json:"hospital_id,omitempty"`
	HospitalName  string     `json:"hospital_name,omitempty"`
	EmailVerified bool       `json:"email_verified"`
}

func NewUserProfile(u *User, hospital *Hospital) *UserProfile {
	p := &UserProfile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		HospitalID:    cloneUUID(u.HospitalID),
		EmailVerified: u.EmailVerified,
	}
	if hospital != nil {
		p.HospitalName = hospital.Name
	}
	return p
}
