// Package telegram implements Telegram Mini App identity verification.
// The host environment passes initData to the web app; this package verifies
// its signature and extracts the opaque user identity the engine relies on.
// A missing or invalid identity degrades the engine to anonymous read-only
// mode rather than failing.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// VerifierConfig contains configuration for initData verification.
type VerifierConfig struct {
	// BotToken is the bot token the hash is derived from
	BotToken string

	// MaxAge is how old auth_date may be before the data is rejected.
	// Zero disables the expiry check.
	MaxAge time.Duration
}

// DefaultVerifierConfig returns sensible defaults.
func DefaultVerifierConfig(botToken string) VerifierConfig {
	return VerifierConfig{
		BotToken: botToken,
		MaxAge:   24 * time.Hour,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VERIFIER
// ══════════════════════════════════════════════════════════════════════════════

// Verifier validates Telegram WebApp initData strings.
type Verifier struct {
	config VerifierConfig
	// secretKey = HMAC_SHA256("WebAppData", botToken), per the Mini Apps
	// validation scheme.
	secretKey []byte
	now       func() time.Time
}

// NewVerifier creates a Verifier for the given configuration.
func NewVerifier(config VerifierConfig) *Verifier {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(config.BotToken))
	return &Verifier{
		config:    config,
		secretKey: mac.Sum(nil),
		now:       time.Now,
	}
}

// webAppUser mirrors the user JSON embedded in initData.
type webAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Verify checks the initData signature and returns the user identity.
// An empty initData string yields the anonymous identity without error:
// absence of identity is an expected, degraded mode, not a failure.
func (v *Verifier) Verify(initData string) (shared.Identity, error) {
	if strings.TrimSpace(initData) == "" {
		return shared.Anonymous(), nil
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return shared.Anonymous(), shared.WrapError("telegram", "Verify", shared.ErrForbidden, "malformed init data", err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return shared.Anonymous(), shared.ErrInitDataInvalid
	}

	if !hmac.Equal([]byte(v.checkHash(values)), []byte(gotHash)) {
		return shared.Anonymous(), shared.ErrInitDataInvalid
	}

	if v.config.MaxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return shared.Anonymous(), shared.ErrInitDataInvalid
		}
		if v.now().Sub(time.Unix(authDate, 0)) > v.config.MaxAge {
			return shared.Anonymous(), shared.ErrInitDataExpired
		}
	}

	var user webAppUser
	if raw := values.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return shared.Anonymous(), shared.WrapError("telegram", "Verify", shared.ErrForbidden, "malformed user payload", err)
		}
	}

	return shared.Identity{
		TelegramID: shared.TelegramID(user.ID),
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Username:   user.Username,
	}, nil
}

// checkHash computes the expected hash over the data-check-string:
// all fields except hash, sorted by key, joined as key=value with newlines.
func (v *Verifier) checkHash(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	mac := hmac.New(sha256.New, v.secretKey)
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
