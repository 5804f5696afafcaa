package musiclink

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

const (
	// developerTokenTTL is how long a signed developer token stays valid.
	developerTokenTTL = 12 * time.Hour
	// developerTokenRenewal re-signs a token this long before it expires.
	developerTokenRenewal = 10 * time.Minute
)

// ErrInvalidSigningKey is returned when the Apple .p8 key cannot be used for ES256.
var ErrInvalidSigningKey = errors.New("invalid ES256 signing key")

// DeveloperTokenSigner issues Apple Music developer tokens: ES256 JWTs carrying
// the key id in the header and the team id as issuer.
type DeveloperTokenSigner struct {
	keyID  string
	teamID string
	key    *ecdsa.PrivateKey
	now    func() time.Time

	mutex   sync.Mutex
	token   string
	expires time.Time
}

// NewDeveloperTokenSigner parses the PEM-encoded .p8 key.
func NewDeveloperTokenSigner(keyID, teamID string, p8 []byte) (*DeveloperTokenSigner, error) {
	key, err := ParseSigningKey(p8)
	if err != nil {
		return nil, err
	}
	return &DeveloperTokenSigner{
		keyID:  keyID,
		teamID: teamID,
		key:    key,
		now:    time.Now,
	}, nil
}

// ParseSigningKey decodes a PKCS#8 PEM block holding a P-256 private key.
func ParseSigningKey(p8 []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(p8)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidSigningKey)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSigningKey, err)
	}

	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is %T, not ECDSA", ErrInvalidSigningKey, parsed)
	}
	return key, nil
}

// Token returns a cached developer token, signing a new one when the cached one is close to expiry.
func (s *DeveloperTokenSigner) Token() (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	if s.token != "" && now.Add(developerTokenRenewal).Before(s.expires) {
		return s.token, nil
	}

	token, err := s.sign(now)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expires = now.Add(developerTokenTTL)
	return token, nil
}

func (s *DeveloperTokenSigner) sign(now time.Time) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: s.key},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", s.keyID),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	claims := jwt.Claims{
		Issuer:   s.teamID,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(developerTokenTTL)),
	}

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to sign developer token: %w", err)
	}
	return token, nil
}
