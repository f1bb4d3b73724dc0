package usecase

import (
	"crypto/subtle"
	"encoding/hex"
	"log/slog"

	"golang.org/x/crypto/argon2"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
)

// Argon2id parameters for access code digests. These must match whatever
// produced the configured digest; see DigestCode.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// AccessService gates premium features behind an access code. The code is
// never stored: config carries only an Argon2id digest plus salt, and Unlock
// compares digests in constant time.
type AccessService struct {
	digest []byte
	salt   []byte
	logger *slog.Logger
}

// NewAccessService creates the premium gate from config. Invalid hex in the
// configured digest or salt is treated as no code configured.
func NewAccessService(cfg config.AccessConfig, logger *slog.Logger) *AccessService {
	s := &AccessService{logger: logger}
	digest, err := hex.DecodeString(cfg.CodeDigest)
	if err != nil {
		logger.Warn("access code digest is not valid hex, premium locked")
		return s
	}
	salt, err := hex.DecodeString(cfg.Salt)
	if err != nil {
		logger.Warn("access code salt is not valid hex, premium locked")
		return s
	}
	s.digest = digest
	s.salt = salt
	return s
}

// Configured reports whether an access code digest is present. When false,
// premium features cannot be unlocked at all.
func (s *AccessService) Configured() bool {
	return len(s.digest) > 0
}

// Unlock verifies code and, on success, marks the session premium. A wrong
// code or an unconfigured gate returns ErrAccessDenied. Unlocking an already
// unlocked session is a no-op.
func (s *AccessService) Unlock(session *domain.Session, code string) error {
	if session.PremiumUnlocked {
		return nil
	}
	if !s.Configured() || code == "" {
		return domain.NewDomainError("access.Unlock", domain.ErrAccessDenied, "")
	}
	candidate := argon2.IDKey([]byte(code), s.salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	if subtle.ConstantTimeCompare(candidate, s.digest) != 1 {
		s.logger.Info("access code rejected", "session_id", session.ID)
		return domain.NewDomainError("access.Unlock", domain.ErrAccessDenied, "")
	}
	session.Unlock()
	s.logger.Info("premium unlocked", "session_id", session.ID)
	return nil
}

// Require checks that session may use the feature, returning ErrFeatureLocked
// for premium features on a locked session.
func (s *AccessService) Require(session *domain.Session, id domain.FeatureID) error {
	feature, ok := domain.FeatureByID(id)
	if !ok {
		return domain.NewDomainError("access.Require", domain.ErrInvalidInput, string(id))
	}
	if !session.CanUse(feature) {
		return domain.NewDomainError("access.Require", domain.ErrFeatureLocked, string(id))
	}
	return nil
}

// DigestCode derives the hex Argon2id digest for code under salt. It exists
// so operators can mint config values with the same parameters Unlock uses.
func DigestCode(code string, salt []byte) string {
	return hex.EncodeToString(argon2.IDKey([]byte(code), salt, argonTime, argonMemory, argonThreads, argonKeyLen))
}
