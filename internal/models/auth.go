package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access-token payload.
type JWTClaims struct {
	RegNo    string   `json:"reg_no"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	RegNo    string `json:"reg_no" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Role        string `json:"role"`
	FullName    string `json:"full_name"`
}
