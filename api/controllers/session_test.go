package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medgrid/bedfinder-backend/internal/auth"
	pkgAuth "github.com/medgrid/bedfinder-backend/pkg/auth"
	"github.com/medgrid/bedfinder-backend/pkg/auth/session"
	"github.com/medgrid/bedfinder-backend/pkg/config"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
)

type stubAuthService struct {
	refreshFn func(ctx context.Context, accessToken, refreshToken string) (*auth.TokenPairDTO, error)
	logoutFn  func(ctx context.Context, accessID string) error

	lastLogout string
}

func (s *stubAuthService) RegisterUser(ctx context.Context, input auth.RegisterUserInput) (*auth.UserDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAuthService) LoginUser(ctx context.Context, input auth.LoginInput) (*auth.TokenPairDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAuthService) LoginAdmin(ctx context.Context, input auth.LoginInput) (*auth.TokenPairDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAuthService) LoginHospital(ctx context.Context, input auth.HospitalLoginInput) (*auth.TokenPairDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.TokenPairDTO, error) {
	if s.refreshFn != nil {
		return s.refreshFn(ctx, accessToken, refreshToken)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.lastLogout = accessID
	if s.logoutFn != nil {
		return s.logoutFn(ctx, accessID)
	}
	return nil
}

func (s *stubAuthService) SeedAdmin(ctx context.Context, adminCfg config.AdminConfig) error {
	return nil
}

func mintSessionToken(t *testing.T, cfg config.JWTConfig) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		SubjectID: uuid.New(),
		Role:      enums.RoleUser,
		JTI:       accessID,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return token, accessID
}

func TestAuthLogout(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	svc := &stubAuthService{}
	handler := AuthLogout(svc, cfg, nil)

	token, jti := mintSessionToken(t, cfg)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastLogout != jti {
		t.Fatalf("expected logout %s got %s", jti, svc.lastLogout)
	}
}

func TestAuthLogoutRejectsMissingToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := AuthLogout(&stubAuthService{}, cfg, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthRefresh(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	svc := &stubAuthService{
		refreshFn: func(ctx context.Context, accessToken, refreshToken string) (*auth.TokenPairDTO, error) {
			if refreshToken != "old-refresh" {
				t.Fatalf("unexpected refresh token %s", refreshToken)
			}
			return &auth.TokenPairDTO{AccessToken: "new-access", RefreshToken: "new-refresh", Role: enums.RoleUser, ExpiresIn: 600}, nil
		},
	}
	handler := AuthRefresh(svc, nil)

	token, _ := mintSessionToken(t, cfg)
	body := `{"refresh_token":"old-refresh"}`
	req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data auth.TokenPairDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.RefreshToken != "new-refresh" {
		t.Fatalf("expected refresh token new-refresh got %s", envelope.Data.RefreshToken)
	}
	if envelope.Data.AccessToken != "new-access" {
		t.Fatalf("expected access token in body")
	}
}

func TestAuthRefreshInvalidSession(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	svc := &stubAuthService{
		refreshFn: func(ctx context.Context, accessToken, refreshToken string) (*auth.TokenPairDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		},
	}
	handler := AuthRefresh(svc, nil)

	token, _ := mintSessionToken(t, cfg)
	req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewBufferString(`{"refresh_token":"stale"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
