// internal/services/auth_service.go
package services

import (
	"fmt"

	"github.com/truckzone/truckzone-backend/internal/utils"
)

// AuthService issues bearer tokens for identities already authenticated by the
// upstream identity provider.
type AuthService struct {
	jwt *utils.JWTManager
}

type TokenRequest struct {
	UID   string `json:"uid" validate:"required,max=128"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

type AuthResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int    `json:"expiresIn"` // in seconds
}

func NewAuthService(jwtManager *utils.JWTManager) *AuthService {
	return &AuthService{jwt: jwtManager}
}

func (s *AuthService) IssueToken(req *TokenRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	token, err := s.jwt.GenerateJWT(req.UID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.jwt.TTL().Seconds()),
	}, nil
}
