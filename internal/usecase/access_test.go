package usecase

import (
	"errors"
	"testing"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/logger"
)

func accessFixture(t *testing.T, code string) *AccessService {
	t.Helper()
	salt := []byte("0123456789abcdef")
	return NewAccessService(config.AccessConfig{
		CodeDigest: DigestCode(code, salt),
		Salt:       "30313233343536373839616263646566", // hex of the salt bytes
	}, logger.Nop())
}

func TestAccessUnlockCorrectCode(t *testing.T) {
	svc := accessFixture(t, "open-sesame")
	session := NewSession()

	if err := svc.Unlock(session, "open-sesame"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !session.PremiumUnlocked {
		t.Error("session not unlocked")
	}

	// Unlock is idempotent once granted, even with a wrong code.
	if err := svc.Unlock(session, "wrong"); err != nil {
		t.Errorf("repeat Unlock: %v", err)
	}
}

func TestAccessUnlockWrongCode(t *testing.T) {
	svc := accessFixture(t, "open-sesame")
	session := NewSession()

	err := svc.Unlock(session, "guess")
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
	if session.PremiumUnlocked {
		t.Error("wrong code must not unlock")
	}
}

func TestAccessUnlockUnconfigured(t *testing.T) {
	svc := NewAccessService(config.AccessConfig{}, logger.Nop())
	if svc.Configured() {
		t.Fatal("empty config must not be configured")
	}
	err := svc.Unlock(NewSession(), "anything")
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}
}

func TestAccessUnlockBadHexDigest(t *testing.T) {
	svc := NewAccessService(config.AccessConfig{CodeDigest: "zz", Salt: "00"}, logger.Nop())
	if svc.Configured() {
		t.Error("invalid hex must leave the gate unconfigured")
	}
}

func TestAccessRequire(t *testing.T) {
	svc := NewAccessService(config.AccessConfig{}, logger.Nop())
	session := NewSession()

	if err := svc.Require(session, domain.FeatureChat); err != nil {
		t.Errorf("free feature on locked session: %v", err)
	}
	if err := svc.Require(session, domain.FeatureImage); !errors.Is(err, domain.ErrFeatureLocked) {
		t.Errorf("premium feature on locked session = %v, want ErrFeatureLocked", err)
	}

	session.Unlock()
	if err := svc.Require(session, domain.FeatureImage); err != nil {
		t.Errorf("premium feature on unlocked session: %v", err)
	}

	if err := svc.Require(session, domain.FeatureID("nope")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown feature = %v, want ErrInvalidInput", err)
	}
}
