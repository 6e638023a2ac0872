package apns

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Apple rejects provider tokens older than one hour; refresh well before that.
const tokenLifetime = 50 * time.Minute

// LoadAuthKey reads a .p8 signing key downloaded from the Apple developer portal
func LoadAuthKey(path string) (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read APNs key file: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse APNs key: %w", err)
	}
	return key, nil
}

// providerToken caches the signed JWT sent as the APNs bearer credential
type providerToken struct {
	key    *ecdsa.PrivateKey
	keyID  string
	teamID string
	now    func() time.Time

	mu       sync.Mutex
	bearer   string
	issuedAt time.Time
}

func newProviderToken(key *ecdsa.PrivateKey, keyID, teamID string) *providerToken {
	return &providerToken{key: key, keyID: keyID, teamID: teamID, now: time.Now}
}

// Bearer returns a valid signed token, generating a new one when the cached one is stale
func (t *providerToken) Bearer() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.bearer != "" && now.Sub(t.issuedAt) < tokenLifetime {
		return t.bearer, nil
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": t.teamID,
		"iat": now.Unix(),
	})
	token.Header["kid"] = t.keyID

	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign APNs provider token: %w", err)
	}

	t.bearer = signed
	t.issuedAt = now
	return signed, nil
}
