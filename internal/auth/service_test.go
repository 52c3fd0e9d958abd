package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/medgrid/bedfinder-backend/internal/store"
	pkgauth "github.com/medgrid/bedfinder-backend/pkg/auth"
	"github.com/medgrid/bedfinder-backend/pkg/auth/session"
	"github.com/medgrid/bedfinder-backend/pkg/config"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
	"github.com/medgrid/bedfinder-backend/pkg/security"
	"github.com/medgrid/bedfinder-backend/pkg/types"
)

type mockSessions struct {
	mu     sync.Mutex
	tokens map[string]string
	serial int
}

func newMockSessions() *mockSessions {
	return &mockSessions{tokens: make(map[string]string)}
}

func (m *mockSessions) Generate(ctx context.Context, accessID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serial++
	token := fmt.Sprintf("refresh-%d", m.serial)
	m.tokens[accessID] = token
	return token, nil
}

func (m *mockSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(m.tokens, oldAccessID)
	m.serial++
	newAccessID := fmt.Sprintf("access-%d", m.serial)
	newToken := fmt.Sprintf("refresh-%d", m.serial)
	m.tokens[newAccessID] = newToken
	return newAccessID, newToken, nil
}

func (m *mockSessions) Revoke(ctx context.Context, accessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, accessID)
	return nil
}

func testJWTCfg() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "bedfinder", ExpirationMinutes: 30}
}

func testPasswordCfg() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
}

func newTestService(t *testing.T) (Service, *store.Memory, *mockSessions) {
	t.Helper()
	memory := store.NewMemory()
	sessions := newMockSessions()
	svc, err := NewService(memory, memory, sessions, testJWTCfg(), testPasswordCfg())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, memory, sessions
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestRegisterAndLoginUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	user, err := svc.RegisterUser(ctx, RegisterUserInput{Username: "alice", Email: "alice@example.com", Password: "sup3r-secret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != enums.RoleUser {
		t.Fatalf("expected user role, got %s", user.Role)
	}

	pair, err := svc.LoginUser(ctx, LoginInput{Email: "ALICE@example.com", Password: "sup3r-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTCfg(), pair.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.SubjectID != user.ID || claims.Role != enums.RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}

	_, err = svc.LoginUser(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.LoginUser(ctx, LoginInput{Email: "ghost@example.com", Password: "sup3r-secret"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRegisterUserValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.RegisterUser(ctx, RegisterUserInput{Username: "alice", Email: "not-an-email", Password: "sup3r-secret"})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.RegisterUser(ctx, RegisterUserInput{Username: "alice", Email: "alice@example.com", Password: "short"})
	expectCode(t, err, pkgerrors.CodeValidation)

	if _, err := svc.RegisterUser(ctx, RegisterUserInput{Username: "alice", Email: "alice@example.com", Password: "sup3r-secret"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = svc.RegisterUser(ctx, RegisterUserInput{Username: "alice2", Email: "alice@example.com", Password: "sup3r-secret"})
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestAdminLoginRequiresAdminRole(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	if _, err := svc.RegisterUser(ctx, RegisterUserInput{Username: "bob", Email: "bob@example.com", Password: "sup3r-secret"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.LoginAdmin(ctx, LoginInput{Email: "bob@example.com", Password: "sup3r-secret"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	if err := svc.SeedAdmin(ctx, config.AdminConfig{Email: "admin@example.com", Username: "admin", Password: "admin-secret"}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	pair, err := svc.LoginAdmin(ctx, LoginInput{Email: "admin@example.com", Password: "admin-secret"})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if pair.Role != enums.RoleAdmin {
		t.Fatalf("expected admin role, got %s", pair.Role)
	}

	// Seeding again is a no-op.
	if err := svc.SeedAdmin(ctx, config.AdminConfig{Email: "admin@example.com", Username: "admin", Password: "admin-secret"}); err != nil {
		t.Fatalf("second seed: %v", err)
	}
}

func TestHospitalLoginGatedOnApproval(t *testing.T) {
	ctx := context.Background()
	svc, memory, _ := newTestService(t)

	hash, err := security.HashPassword("ward-secret", testPasswordCfg())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hospital, err := memory.CreateHospital(ctx, store.Hospital{
		Username:     "general",
		PasswordHash: hash,
		Name:         "General",
		Address:      types.Address{Line1: "1 Main St", City: "Springfield", State: "IL", PostalCode: "62701", Country: "US"},
	})
	if err != nil {
		t.Fatalf("seed hospital: %v", err)
	}

	_, err = svc.LoginHospital(ctx, HospitalLoginInput{Username: "general", Password: "ward-secret"})
	expectCode(t, err, pkgerrors.CodeForbidden)

	if _, err := memory.SetHospitalApproved(ctx, hospital.ID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	pair, err := svc.LoginHospital(ctx, HospitalLoginInput{Username: "general", Password: "ward-secret"})
	if err != nil {
		t.Fatalf("hospital login: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTCfg(), pair.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.HospitalID == nil || *claims.HospitalID != hospital.ID {
		t.Fatal("expected hospital id claim")
	}

	_, err = svc.LoginHospital(ctx, HospitalLoginInput{Username: "general", Password: "wrong"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestFeedSyncedHospitalCannotLogin(t *testing.T) {
	ctx := context.Background()
	svc, memory, _ := newTestService(t)

	if _, err := memory.CreateHospital(ctx, store.Hospital{Username: "feed-ext-1", Approved: true, ExternalRef: "ext-1"}); err != nil {
		t.Fatalf("seed hospital: %v", err)
	}
	_, err := svc.LoginHospital(ctx, HospitalLoginInput{Username: "feed-ext-1", Password: "anything"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRotatesSession(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions := newTestService(t)

	if _, err := svc.RegisterUser(ctx, RegisterUserInput{Username: "alice", Email: "alice@example.com", Password: "sup3r-secret"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, err := svc.LoginUser(ctx, LoginInput{Email: "alice@example.com", Password: "sup3r-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == pair.AccessToken || refreshed.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate both tokens")
	}

	// The old pair is dead after rotation.
	_, err = svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	expectCode(t, err, pkgerrors.CodeUnauthorized)

	// Logout revokes the new session.
	claims, err := pkgauth.ParseAccessToken(testJWTCfg(), refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.tokens[claims.ID]; ok {
		t.Fatal("expected session removed after logout")
	}
}
