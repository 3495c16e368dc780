package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" form:"email" validate:"required,email"`
	Password  string `json:"password" form:"password" validate:"required,min=8"`
	IP        string `json:"-" form:"-"`
	UserAgent string `json:"-" form:"-"`
}

// AuthResult is the body of login and logout. Failures are results, not errors.
type AuthResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    *UserInfo `json:"data,omitempty"`
}

// SessionClaims is the signed payload carried by the session cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
