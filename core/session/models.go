package session

import (
	"github.com/go-playground/validator/v10"

	"github.com/kramik/kramik/core"
)

// Roles
const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type Role string

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Identity represents the signed-in principal.
// WalletAddress is non-empty if and only if the session was established
// through the wallet flow.
type Identity struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Role          Role   `json:"userType"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (i Identity) IsStudent() bool {
	return i.Role == RoleStudent
}

// Credentials is the email/password login request. Never persisted.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	UserType Role   `json:"userType" validate:"omitempty,usertype"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	if c.UserType == "" {
		c.UserType = RoleStudent
	}
	return validate.Struct(c)
}

// NewAccount contains information needed to register a new account.
// Registration always produces a student identity.
type NewAccount struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	return validate.Struct(na)
}

// WalletLoginRequest exchanges a wallet-signed challenge for a session.
// Message is the exact challenge string that was signed; the manager never
// reconstructs it.
type WalletLoginRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,eth_addr_hex"`
	Signature     string `json:"signature" validate:"required"`
	Message       string `json:"message" validate:"required"`
	UserType      Role   `json:"userType" validate:"omitempty,usertype"`
}

func (w *WalletLoginRequest) Validate(validate *validator.Validate) error {
	w.WalletAddress = core.CleanString(w.WalletAddress)
	if w.UserType == "" {
		w.UserType = RoleStudent
	}
	return validate.Struct(w)
}

// ProfilePatch carries partial profile updates; zero-valued fields are left
// unchanged. The backend returns the full updated identity.
type ProfilePatch struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

func (p *ProfilePatch) Validate(validate *validator.Validate) error {
	p.Name = core.CleanString(p.Name)
	p.Email = core.CleanString(p.Email, true /* lower */)
	return validate.Struct(p)
}
