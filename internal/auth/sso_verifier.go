package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultJWKSCacheTTL   = 10 * time.Minute
	defaultReplayTTL      = 10 * time.Minute
	replayCleanupInterval = time.Minute
)

var (
	errMissingAssertion      = errors.New("assertion must not be empty")
	errMissingKeyIdentifier  = errors.New("assertion missing key identifier")
	errKeyNotFound           = errors.New("signing key not found in JWKS")
	errUntrustedIssuer       = errors.New("assertion issuer not allowed")
	errMissingAudienceConfig = errors.New("audience configuration required")
	errMissingJWKSURL        = errors.New("jwks url configuration required")
	errNoAllowedIssuers      = errors.New("no allowed issuers configured")
	errMissingDomainConfig   = errors.New("allowed domain required in strict mode")
	ErrAssertionReplayed     = errors.New("auth: assertion already used")
	ErrInvalidVerifierConfig = errors.New("auth: invalid sso verifier config")
)

// SSOVerifierConfig bundles configuration required to instantiate an SSOVerifier.
type SSOVerifierConfig struct {
	Audience       string
	JWKSURL        string
	AllowedIssuers []string
	// Strict restricts sign-in to accounts under AllowedDomain.
	Strict        bool
	AllowedDomain string
	HTTPClient    *http.Client
	CacheTTL      time.Duration
	ReplayTTL     time.Duration
	Logger        *zap.Logger
	Clock         func() time.Time
}

// SSOClaims is the payload of a campus single sign-on assertion.
type SSOClaims struct {
	NetID string `json:"netid,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SSOVerifier verifies RS256 sign-on assertions offline using cached JWKS and
// refuses to accept the same assertion twice.
type SSOVerifier struct {
	audience      string
	jwksURL       string
	strict        bool
	allowedDomain string
	logger        *zap.Logger
	httpClient    *http.Client
	clock         func() time.Time
	keys          *jwksCache
	seen          *cache.Cache
	issuers       map[string]struct{}
}

// NewSSOVerifier constructs a verifier with validated configuration.
func NewSSOVerifier(cfg SSOVerifierConfig) (*SSOVerifier, error) {
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerifierConfig, errMissingAudienceConfig)
	}
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if jwksURL == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerifierConfig, errMissingJWKSURL)
	}
	allowedDomain := strings.ToLower(strings.TrimSpace(cfg.AllowedDomain))
	if cfg.Strict && allowedDomain == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerifierConfig, errMissingDomainConfig)
	}

	issuers := make(map[string]struct{})
	for _, issuer := range cfg.AllowedIssuers {
		normalized := strings.TrimSpace(issuer)
		if normalized == "" {
			continue
		}
		issuers[normalized] = struct{}{}
	}
	if len(issuers) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerifierConfig, errNoAllowedIssuers)
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultJWKSCacheTTL
	}
	replayTTL := cfg.ReplayTTL
	if replayTTL <= 0 {
		replayTTL = defaultReplayTTL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &SSOVerifier{
		audience:      audience,
		jwksURL:       jwksURL,
		strict:        cfg.Strict,
		allowedDomain: allowedDomain,
		logger:        logger,
		httpClient:    httpClient,
		clock:         clock,
		keys:          &jwksCache{ttl: cacheTTL},
		seen:          cache.New(replayTTL, replayCleanupInterval),
		issuers:       issuers,
	}, nil
}

// Verify validates the assertion and returns its claims.
func (v *SSOVerifier) Verify(ctx context.Context, assertion string) (SSOClaims, error) {
	rawToken := strings.TrimSpace(assertion)
	if rawToken == "" {
		return SSOClaims{}, errMissingAssertion
	}

	claims := &SSOClaims{}
	token, err := jwt.ParseWithClaims(
		rawToken,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			keyID, _ := token.Header["kid"].(string)
			if keyID == "" {
				return nil, errMissingKeyIdentifier
			}
			return v.lookupKey(ctx, keyID)
		},
		jwt.WithAudience(v.audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(v.clock),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return SSOClaims{}, err
	}
	if !token.Valid {
		return SSOClaims{}, errors.New("assertion signature invalid")
	}
	if _, allowed := v.issuers[claims.Issuer]; !allowed {
		return SSOClaims{}, errUntrustedIssuer
	}
	if err := v.markUsed(claims); err != nil {
		return SSOClaims{}, err
	}
	return *claims, nil
}

// VerifyIdentity validates the assertion and resolves the caller identity.
func (v *SSOVerifier) VerifyIdentity(ctx context.Context, assertion string) (domain.Identity, error) {
	claims, err := v.Verify(ctx, assertion)
	if err != nil {
		return domain.Identity{}, err
	}
	allowedDomain := ""
	if v.strict {
		allowedDomain = v.allowedDomain
	}
	return ResolveIdentity(claims, allowedDomain)
}

// markUsed records the assertion id until the assertion would have expired
// anyway. Assertions without an id are keyed by subject and issue time.
func (v *SSOVerifier) markUsed(claims *SSOClaims) error {
	key := claims.ID
	if key == "" {
		issuedAt := int64(0)
		if claims.IssuedAt != nil {
			issuedAt = claims.IssuedAt.Unix()
		}
		key = fmt.Sprintf("%s|%s|%d", claims.Issuer, claims.Subject, issuedAt)
	}
	ttl := cache.DefaultExpiration
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(v.clock()); remaining > 0 {
			ttl = remaining
		}
	}
	if err := v.seen.Add(key, struct{}{}, ttl); err != nil {
		v.logger.Warn("sso assertion replay rejected", zap.String("issuer", claims.Issuer), zap.String("subject", claims.Subject))
		return ErrAssertionReplayed
	}
	return nil
}

func (v *SSOVerifier) lookupKey(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	now := v.clock()
	if key := v.keys.get(keyID, now); key != nil {
		return key, nil
	}
	if err := v.refreshKeys(ctx, now); err != nil {
		return nil, err
	}
	if key := v.keys.get(keyID, now); key != nil {
		return key, nil
	}
	return nil, errKeyNotFound
}

func (v *SSOVerifier) refreshKeys(ctx context.Context, fetchedAt time.Time) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	response, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks request returned status %d", response.StatusCode)
	}

	var document jwksDocument
	if err := json.NewDecoder(response.Body).Decode(&document); err != nil {
		return err
	}

	keyMap := make(map[string]*rsa.PublicKey, len(document.Keys))
	for _, key := range document.Keys {
		if key.KeyType != "RSA" || (key.Use != "" && key.Use != "sig") {
			continue
		}
		publicKey, err := key.toRSAPublicKey()
		if err != nil {
			v.logger.Debug("skipping jwk", zap.String("kid", key.KeyID), zap.Error(err))
			continue
		}
		keyMap[key.KeyID] = publicKey
	}
	if len(keyMap) == 0 {
		return errors.New("jwks document contained no usable keys")
	}

	v.keys.store(keyMap, fetchedAt)
	return nil
}

type jwksCache struct {
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	ttl       time.Duration
}

func (c *jwksCache) get(keyID string, now time.Time) *rsa.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.keys == nil || now.After(c.expiresAt) {
		return nil
	}
	return c.keys[keyID]
}

func (c *jwksCache) store(keys map[string]*rsa.PublicKey, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = keys
	c.expiresAt = now.Add(c.ttl)
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	KeyType string `json:"kty"`
	Alg     string `json:"alg"`
	KeyID   string `json:"kid"`
	Use     string `json:"use"`
	Modulus string `json:"n"`
	Exp     string `json:"e"`
}

func (k jwk) toRSAPublicKey() (*rsa.PublicKey, error) {
	modulusBytes, err := base64.RawURLEncoding.DecodeString(k.Modulus)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus encoding: %w", err)
	}
	exponentBytes, err := base64.RawURLEncoding.DecodeString(k.Exp)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent encoding: %w", err)
	}
	if len(exponentBytes) == 0 {
		return nil, errors.New("missing exponent bytes")
	}

	exponent := 0
	for _, b := range exponentBytes {
		exponent = exponent<<8 + int(b)
	}
	if exponent == 0 {
		return nil, errors.New("invalid exponent value")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(modulusBytes),
		E: exponent,
	}, nil
}
