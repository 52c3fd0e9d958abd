package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// SubjectID is the user or hospital identifier depending on Role;
// HospitalID is set only for hospital actors.
type AccessTokenPayload struct {
	SubjectID  uuid.UUID
	HospitalID *uuid.UUID
	Role       enums.Role
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	SubjectID  uuid.UUID  `json:"subject_id"`
	HospitalID *uuid.UUID `json:"hospital_id,omitempty"`
	Role       enums.Role `json:"role"`
	jwt.RegisteredClaims
}
