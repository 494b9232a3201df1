package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Parse for tokens that are malformed,
// carry a bad signature, or are expired.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity payload carried inside a session token. The caller
// supplies arbitrary fields (typically at least "email"); issuance adds the
// registered iat/exp claims on top.
type Claims map[string]any

// Email returns the "email" claim, or "" when absent.
func (c Claims) Email() string {
	email, _ := c["email"].(string)
	return email
}

// TokenService signs and verifies self-contained session tokens. Validity is
// purely a function of signature and expiry; nothing is stored server-side.
type TokenService struct {
	secret   []byte
	validity time.Duration
}

// NewTokenService creates a TokenService signing with the given HMAC secret.
// Tokens expire after validity.
func NewTokenService(secret string, validity time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret must not be empty")
	}
	if validity <= 0 {
		return nil, errors.New("auth: token validity must be positive")
	}
	return &TokenService{secret: []byte(secret), validity: validity}, nil
}

// Validity returns the lifetime of issued tokens.
func (s *TokenService) Validity() time.Duration {
	return s.validity
}

// Issue signs the given claims into an HS256 token with a fixed validity
// window from now.
func (s *TokenService) Issue(claims Claims) (string, error) {
	now := time.Now()
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(s.validity).Unix()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(s.secret)
}

// Parse verifies a token string and returns the claims it carries.
func (s *TokenService) Parse(tokenStr string) (Claims, error) {
	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims := make(Claims, len(mc))
	for k, v := range mc {
		claims[k] = v
	}
	return claims, nil
}
