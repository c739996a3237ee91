package barnapi

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rohanthewiz/serr"
)

const (
	// TokenIssuer identifies this application to the barn API
	TokenIssuer = "galpones"

	// TokenSubject names the calling component
	TokenSubject = "barn-form-panel"

	tokenTTL = 5 * time.Minute

	// Tokens are replaced this long before they expire so a request never
	// leaves with a token that lapses in flight.
	tokenRefreshMargin = time.Minute
)

// TokenSource mints short-lived HS256 service tokens and caches the current
// one until it is close to expiry.
type TokenSource struct {
	secret []byte
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenSource returns a token source signing with secret.
func NewTokenSource(secret []byte) *TokenSource {
	return &TokenSource{secret: secret, now: time.Now}
}

// Token returns a valid signed token, minting a new one when needed.
func (ts *TokenSource) Token() (string, error) {
	if len(ts.secret) == 0 {
		return "", serr.New("token source has no secret")
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now()
	if ts.token != "" && now.Add(tokenRefreshMargin).Before(ts.expires) {
		return ts.token, nil
	}

	expires := now.Add(tokenTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Subject:   TokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", serr.Wrap(err, "failed to sign service token")
	}

	ts.token = signed
	ts.expires = expires
	return signed, nil
}

// ParseToken validates a service token signed with secret and returns its
// claims, the same way the barn API checks incoming requests.
func ParseToken(tokenString string, secret []byte) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, serr.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithIssuer(TokenIssuer))
	if err != nil {
		return nil, serr.Wrap(err, "failed to parse service token")
	}
	if !token.Valid {
		return nil, serr.New("invalid service token")
	}
	return claims, nil
}
