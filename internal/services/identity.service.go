package services

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"gymbro/config"
	"gymbro/internal/types"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/golang-jwt/jwt/v5"
)

// OIDCDiscovery represents the OIDC discovery document
type OIDCDiscovery struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKS_URI              string `json:"jwks_uri"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSet represents a set of JSON Web Keys
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// IdentityService validates OIDC ID tokens against the configured issuer's
// published keys.
type IdentityService struct {
	config     config.Config
	log        logger.Logger
	httpClient *http.Client
	issuer     string
	clientID   string

	// OIDC discovery and JWK caching
	discovery     *OIDCDiscovery
	jwks          *JWKSet
	discoveryMux  sync.RWMutex
	jwksMux       sync.RWMutex
	discoveryTime time.Time
	jwksTime      time.Time
	cacheTTL      time.Duration
}

func NewIdentityService(cfg config.Config) (*IdentityService, error) {
	log := logger.New("IdentityService")

	if cfg.OIDCIssuerURL == "" || cfg.OIDCClientID == "" {
		return nil, log.ErrMsg(
			"OIDC configuration required but not provided: missing OIDC_ISSUER_URL or OIDC_CLIENT_ID",
		)
	}

	service := &IdentityService{
		config:     cfg,
		log:        log,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		issuer:     cfg.OIDCIssuerURL,
		clientID:   cfg.OIDCClientID,
		cacheTTL:   15 * time.Minute,
	}

	log.Info("Identity service initialized successfully", "issuer", cfg.OIDCIssuerURL)
	return service, nil
}

// ValidateIDToken validates an OIDC ID token with full JWT signature
// verification against the issuer's JWKS.
func (is *IdentityService) ValidateIDToken(
	ctx context.Context,
	idToken string,
) (*types.TokenInfo, error) {
	log := is.log.Function("ValidateIDToken")

	var claims struct {
		jwt.RegisteredClaims
		Email         string `json:"email"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		PreferredName string `json:"preferred_username"`
		EmailVerified bool   `json:"email_verified"`
	}

	token, err := jwt.ParseWithClaims(
		idToken,
		&claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, log.ErrMsg(
					"unexpected signing method: " + fmt.Sprintf("%v", token.Header["alg"]),
				)
			}

			kidHeader, ok := token.Header["kid"].(string)
			if !ok {
				return nil, log.ErrMsg("missing or invalid 'kid' in JWT header")
			}

			publicKey, err := is.getPublicKeyForToken(ctx, kidHeader)
			if err != nil {
				return nil, log.Err("failed to get public key", err)
			}

			return publicKey, nil
		},
	)
	if err != nil {
		return &types.TokenInfo{Valid: false}, log.Err("JWT signature verification failed", err)
	}

	if !token.Valid {
		return &types.TokenInfo{Valid: false}, log.ErrMsg("JWT token is invalid")
	}

	expectedIssuer := strings.TrimSuffix(is.issuer, "/")
	if claims.Issuer != expectedIssuer {
		return &types.TokenInfo{
				Valid: false,
			}, log.ErrMsg(
				"invalid issuer: expected " + expectedIssuer + ", got " + claims.Issuer,
			)
	}

	if !slices.Contains(claims.Audience, is.clientID) {
		return &types.TokenInfo{
				Valid: false,
			}, log.ErrMsg(
				"invalid audience: expected client ID " + is.clientID + " not found in audience " + fmt.Sprintf(
					"%v",
					claims.Audience,
				),
			)
	}

	displayName := claims.Name
	if displayName == "" && (claims.GivenName != "" || claims.FamilyName != "") {
		displayName = strings.TrimSpace(claims.GivenName + " " + claims.FamilyName)
	}

	return &types.TokenInfo{
		UserID:        claims.Subject,
		Email:         claims.Email,
		Name:          displayName,
		GivenName:     claims.GivenName,
		FamilyName:    claims.FamilyName,
		PreferredName: claims.PreferredName,
		EmailVerified: claims.EmailVerified,
		Valid:         true,
	}, nil
}

// getOIDCDiscovery fetches and caches the OIDC discovery document
func (is *IdentityService) getOIDCDiscovery(ctx context.Context) (*OIDCDiscovery, error) {
	log := is.log.Function("getOIDCDiscovery")

	is.discoveryMux.RLock()
	if is.discovery != nil && time.Since(is.discoveryTime) < is.cacheTTL {
		discovery := is.discovery
		is.discoveryMux.RUnlock()
		return discovery, nil
	}
	is.discoveryMux.RUnlock()

	discoveryURL := strings.TrimSuffix(is.issuer, "/") + "/.well-known/openid-configuration"

	req, err := http.NewRequestWithContext(ctx, "GET", discoveryURL, nil)
	if err != nil {
		return nil, log.Err("failed to create discovery request", err)
	}

	resp, err := is.httpClient.Do(req)
	if err != nil {
		return nil, log.Err("failed to fetch OIDC discovery", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Info("failed to close discovery response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, log.Error("OIDC discovery request failed", "statusCode", resp.StatusCode)
	}

	var discovery OIDCDiscovery
	if err := json.NewDecoder(resp.Body).Decode(&discovery); err != nil {
		return nil, log.Err("failed to decode OIDC discovery", err)
	}

	if discovery.Issuer != strings.TrimSuffix(is.issuer, "/") {
		return nil, log.ErrMsg(
			"invalid issuer in discovery document: expected " + is.issuer + ", got " + discovery.Issuer,
		)
	}

	if discovery.JWKS_URI == "" {
		return nil, log.ErrMsg("missing JWKS URI in discovery document")
	}

	is.discoveryMux.Lock()
	is.discovery = &discovery
	is.discoveryTime = time.Now()
	is.discoveryMux.Unlock()

	log.Info("OIDC discovery fetched successfully", "jwks_uri", discovery.JWKS_URI)
	return &discovery, nil
}

// getJWKS fetches and caches the JSON Web Key Set
func (is *IdentityService) getJWKS(ctx context.Context) (*JWKSet, error) {
	log := is.log.Function("getJWKS")

	is.jwksMux.RLock()
	if is.jwks != nil && time.Since(is.jwksTime) < is.cacheTTL {
		jwks := is.jwks
		is.jwksMux.RUnlock()
		return jwks, nil
	}
	is.jwksMux.RUnlock()

	discovery, err := is.getOIDCDiscovery(ctx)
	if err != nil {
		return nil, log.Err("failed to get OIDC discovery for JWKS", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", discovery.JWKS_URI, nil)
	if err != nil {
		return nil, log.Err("failed to create JWKS request", err)
	}

	resp, err := is.httpClient.Do(req)
	if err != nil {
		return nil, log.Err("failed to fetch JWKS", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Info("failed to close JWKS response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, log.Error("JWKS request failed", "statusCode", resp.StatusCode)
	}

	var jwks JWKSet
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, log.Err("failed to decode JWKS", err)
	}

	if len(jwks.Keys) == 0 {
		return nil, log.ErrMsg("JWKS contains no keys")
	}

	is.jwksMux.Lock()
	is.jwks = &jwks
	is.jwksTime = time.Now()
	is.jwksMux.Unlock()

	log.Info("JWKS fetched successfully", "keys_count", len(jwks.Keys))
	return &jwks, nil
}

// getPublicKeyForToken retrieves the public key for JWT verification based on kid header
func (is *IdentityService) getPublicKeyForToken(
	ctx context.Context,
	kidHeader string,
) (*rsa.PublicKey, error) {
	log := is.log.Function("getPublicKeyForToken")

	jwks, err := is.getJWKS(ctx)
	if err != nil {
		return nil, log.Err("failed to get JWKS", err)
	}

	var targetJWK *JWK
	for _, jwk := range jwks.Keys {
		if jwk.Kid == kidHeader {
			targetJWK = &jwk
			break
		}
	}

	if targetJWK == nil {
		return nil, log.ErrMsg("no matching key found: kid " + kidHeader + " not found in JWKS")
	}

	if targetJWK.Kty != "RSA" {
		return nil, log.ErrMsg("unsupported key type: expected RSA, got " + targetJWK.Kty)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(targetJWK.N)
	if err != nil {
		return nil, log.Err("failed to decode RSA modulus (n)", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(targetJWK.E)
	if err != nil {
		return nil, log.Err("failed to decode RSA exponent (e)", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	// Exponent must fit in int even on 32-bit systems
	if !e.IsInt64() || e.Int64() > int64(^uint(0)>>1) {
		return nil, log.ErrMsg("RSA exponent too large: " + e.String())
	}

	publicKey := &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}

	log.Debug("public key retrieved successfully", "kid", kidHeader, "keyType", targetJWK.Kty)
	return publicKey, nil
}

// IdentityConfig represents the OIDC configuration for clients
type IdentityConfig struct {
	IssuerURL string `json:"issuerUrl"`
	ClientID  string `json:"clientId"`
}

// GetConfig returns the OIDC configuration for client consumption
func (is *IdentityService) GetConfig() IdentityConfig {
	return IdentityConfig{
		IssuerURL: is.issuer,
		ClientID:  is.clientID,
	}
}
