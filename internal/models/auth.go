package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole enumerates roles recognised by the API.
type UserRole string

// Supported roles.
const (
	RoleRegistrar UserRole = "REGISTRAR"
	RoleStudent   UserRole = "STUDENT"
)

// LoginRequest holds registrar credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StudentTokenRequest asks for a token scoped to one student.
type StudentTokenRequest struct {
	StudentNumber int `json:"studentNumber" validate:"gte=0"`
}

// TokenResponse returns an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Role        UserRole  `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens. StudentNumber is
// only meaningful for RoleStudent.
type JWTClaims struct {
	Name          string   `json:"name"`
	Role          UserRole `json:"role"`
	StudentNumber *int     `json:"student_number,omitempty"`
	jwt.RegisteredClaims
}
