package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/internal/store"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
)

// RegisterUserInput captures a patient self-registration.
type RegisterUserInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput carries user/admin credentials.
type LoginInput struct {
	Email    string
	Password string
}

// HospitalLoginInput carries hospital credentials.
type HospitalLoginInput struct {
	Username string
	Password string
}

// TokenPairDTO is the issued session: a signed JWT plus its rotating
// refresh token.
type TokenPairDTO struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	Role         enums.Role `json:"role"`
	ExpiresIn    int        `json:"expires_in"`
}

// UserDTO is the account view returned after registration.
type UserDTO struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      enums.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUserDTO(user store.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
