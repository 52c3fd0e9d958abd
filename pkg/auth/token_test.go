package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/pkg/config"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "bedfinder",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	hospitalID := uuid.New()

	payload := AccessTokenPayload{
		SubjectID:  hospitalID,
		HospitalID: &hospitalID,
		Role:       enums.RoleHospital,
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.SubjectID != hospitalID {
		t.Fatalf("expected subject_id %s, got %s", hospitalID, claims.SubjectID)
	}
	if claims.HospitalID == nil || *claims.HospitalID != hospitalID {
		t.Fatalf("hospital id not preserved")
	}
	if claims.Role != enums.RoleHospital {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestMintRejectsInvalidRole(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "bedfinder", ExpirationMinutes: 30}
	_, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{SubjectID: uuid.New(), Role: "superuser"})
	if err == nil {
		t.Fatal("expected invalid role to fail minting")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	mintCfg := config.JWTConfig{Secret: "secret", Issuer: "other", ExpirationMinutes: 30}
	token, err := MintAccessToken(mintCfg, time.Now().UTC(), AccessTokenPayload{SubjectID: uuid.New(), Role: enums.RoleUser})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	parseCfg := config.JWTConfig{Secret: "secret", Issuer: "bedfinder", ExpirationMinutes: 30}
	if _, err := ParseAccessToken(parseCfg, token); err == nil {
		t.Fatal("expected issuer mismatch to fail parsing")
	}
}

func TestParseAllowExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "bedfinder", ExpirationMinutes: 30}
	payload := AccessTokenPayload{SubjectID: uuid.New(), Role: enums.RoleUser, JTI: "jti-1"}
	token, err := MintAccessToken(cfg, time.Now().UTC().Add(-2*time.Hour), payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail strict parsing")
	}

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("parse expired token: %v", err)
	}
	if claims.ID != "jti-1" {
		t.Fatalf("expected jti-1, got %q", claims.ID)
	}
}
