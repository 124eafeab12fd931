package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jyotish-ai/server/internal/agent/model"
	logx "github.com/jyotish-ai/server/pkg/logger"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgoSHA256 = "sha256"
	AlgoBcrypt = "bcrypt"
)

// HashSHA256 returns the hex SHA-256 digest of secret.
func HashSHA256(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// NewRecord hashes secret with algo into a storable override document.
func NewRecord(secret, algo string, now time.Time) (model.PasswordRecord, error) {
	if secret == "" {
		return model.PasswordRecord{}, fmt.Errorf("password cannot be empty")
	}
	switch algo {
	case "", AlgoSHA256:
		return model.PasswordRecord{Value: HashSHA256(secret), Algo: AlgoSHA256, UpdatedAt: now.UTC()}, nil
	case AlgoBcrypt:
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return model.PasswordRecord{}, fmt.Errorf("bcrypt password: %w", err)
		}
		return model.PasswordRecord{Value: string(hash), Algo: AlgoBcrypt, UpdatedAt: now.UTC()}, nil
	default:
		return model.PasswordRecord{}, fmt.Errorf("unsupported hash algorithm %q", algo)
	}
}

// Gate checks the shared access password. A stored override wins over the
// configured default; store failures fall back to the default.
type Gate struct {
	store           model.AppConfigStore
	defaultPassword string
	log             zerolog.Logger
}

// NewGate accepts a nil store, in which case only the default applies.
func NewGate(store model.AppConfigStore, defaultPassword string) *Gate {
	if defaultPassword == "" {
		defaultPassword = "admin123"
	}
	return &Gate{store: store, defaultPassword: defaultPassword, log: logx.Component("auth")}
}

// Active returns the record currently used for comparisons.
func (g *Gate) Active(ctx context.Context) model.PasswordRecord {
	fallback := model.PasswordRecord{Value: HashSHA256(g.defaultPassword), Algo: AlgoSHA256}
	if g.store == nil {
		return fallback
	}
	rec, found, err := g.store.GetPassword(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("password override unavailable; using default")
		return fallback
	}
	if !found {
		return fallback
	}
	if rec.Algo == "" {
		rec.Algo = AlgoSHA256
	}
	return rec
}

func (g *Gate) Verify(ctx context.Context, candidate string) bool {
	rec := g.Active(ctx)
	switch rec.Algo {
	case AlgoBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(rec.Value), []byte(candidate)) == nil
	case AlgoSHA256:
		got := HashSHA256(candidate)
		return subtle.ConstantTimeCompare([]byte(got), []byte(rec.Value)) == 1
	default:
		g.log.Error().Str("algo", rec.Algo).Msg("unknown password algorithm")
		return false
	}
}

// SetPassword hashes secret and upserts the override document.
func (g *Gate) SetPassword(ctx context.Context, secret, algo string) (model.PasswordRecord, error) {
	if g.store == nil {
		return model.PasswordRecord{}, fmt.Errorf("no config store available")
	}
	rec, err := NewRecord(secret, algo, time.Now())
	if err != nil {
		return model.PasswordRecord{}, err
	}
	if err := g.store.SetPassword(ctx, rec); err != nil {
		return model.PasswordRecord{}, err
	}
	return rec, nil
}
