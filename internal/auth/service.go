package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/internal/store"
	pkgauth "github.com/medgrid/bedfinder-backend/pkg/auth"
	"github.com/medgrid/bedfinder-backend/pkg/auth/session"
	"github.com/medgrid/bedfinder-backend/pkg/config"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
	"github.com/medgrid/bedfinder-backend/pkg/security"
)

const minPasswordLength = 8

type userRepository interface {
	CreateUser(ctx context.Context, user store.User) (store.User, error)
	FindUserByEmail(ctx context.Context, email string) (store.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (store.User, error)
}

type hospitalRepository interface {
	FindHospitalByUsername(ctx context.Context, username string) (store.Hospital, error)
	FindHospitalByID(ctx context.Context, id uuid.UUID) (store.Hospital, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service covers both credential spaces: users (email+password) and
// hospitals (username+password). Unapproved hospitals cannot log in.
type Service interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*UserDTO, error)
	LoginUser(ctx context.Context, input LoginInput) (*TokenPairDTO, error)
	LoginAdmin(ctx context.Context, input LoginInput) (*TokenPairDTO, error)
	LoginHospital(ctx context.Context, input HospitalLoginInput) (*TokenPairDTO, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPairDTO, error)
	Logout(ctx context.Context, accessID string) error
	SeedAdmin(ctx context.Context, adminCfg config.AdminConfig) error
}

type service struct {
	users       userRepository
	hospitals   hospitalRepository
	sessions    sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService builds the auth service.
func NewService(users userRepository, hospitals hospitalRepository, sessions sessionManager, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if hospitals == nil {
		return nil, fmt.Errorf("hospital repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		users:       users,
		hospitals:   hospitals,
		sessions:    sessions,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) RegisterUser(ctx context.Context, input RegisterUserInput) (*UserDTO, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.CreateUser(ctx, store.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         enums.RoleUser,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email or username already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	dto := toUserDTO(user)
	return &dto, nil
}

func (s *service) LoginUser(ctx context.Context, input LoginInput) (*TokenPairDTO, error) {
	return s.loginUserWithRole(ctx, input, enums.RoleUser)
}

func (s *service) LoginAdmin(ctx context.Context, input LoginInput) (*TokenPairDTO, error) {
	return s.loginUserWithRole(ctx, input, enums.RoleAdmin)
}

func (s *service) loginUserWithRole(ctx context.Context, input LoginInput, required enums.Role) (*TokenPairDTO, error) {
	user, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user.Role != required {
		return nil, invalidCredentials()
	}
	if err := s.checkPassword(input.Password, user.PasswordHash); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, pkgauth.AccessTokenPayload{SubjectID: user.ID, Role: user.Role})
}

func (s *service) LoginHospital(ctx context.Context, input HospitalLoginInput) (*TokenPairDTO, error) {
	hospital, err := s.hospitals.FindHospitalByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load hospital")
	}
	if !hospital.Approved {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "hospital pending approval")
	}
	if hospital.PasswordHash == "" {
		// Feed-synced hospitals have no credentials.
		return nil, invalidCredentials()
	}
	if err := s.checkPassword(input.Password, hospital.PasswordHash); err != nil {
		return nil, err
	}

	hospitalID := hospital.ID
	return s.issueTokens(ctx, pkgauth.AccessTokenPayload{
		SubjectID:  hospital.ID,
		HospitalID: &hospitalID,
		Role:       enums.RoleHospital,
	})
}

// Refresh rotates the session keyed by the expired access token's jti
// and mints a fresh token pair for the same subject.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPairDTO, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	signed, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		SubjectID:  claims.SubjectID,
		HospitalID: claims.HospitalID,
		Role:       claims.Role,
		JTI:        newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPairDTO{
		AccessToken:  signed,
		RefreshToken: newRefresh,
		Role:         claims.Role,
		ExpiresIn:    s.jwtCfg.ExpirationMinutes * 60,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// SeedAdmin provisions the bootstrap administrator when configured.
// Re-running against an existing account is a no-op.
func (s *service) SeedAdmin(ctx context.Context, adminCfg config.AdminConfig) error {
	email := strings.TrimSpace(adminCfg.Email)
	if email == "" || adminCfg.Password == "" {
		return nil
	}

	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load admin user")
	}

	hash, err := security.HashPassword(adminCfg.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
	}

	_, err = s.users.CreateUser(ctx, store.User{
		Username:     adminCfg.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         enums.RoleAdmin,
	})
	if err != nil && !errors.Is(err, store.ErrDuplicate) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin user")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, payload pkgauth.AccessTokenPayload) (*TokenPairDTO, error) {
	accessID := session.NewAccessID()
	payload.JTI = accessID

	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	signed, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPairDTO{
		AccessToken:  signed,
		RefreshToken: refreshToken,
		Role:         payload.Role,
		ExpiresIn:    s.jwtCfg.ExpirationMinutes * 60,
	}, nil
}

func (s *service) checkPassword(password, hash string) error {
	ok, err := security.VerifyPassword(password, hash)
	if err != nil || !ok {
		return invalidCredentials()
	}
	return nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}
