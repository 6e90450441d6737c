package activation

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultActivationTokenTTL bounds how long an activation link or code stays
// redeemable.
const DefaultActivationTokenTTL = 15 * time.Minute

// ActivationCodeLength is the number of digits in a login challenge code.
const ActivationCodeLength = 6

// ActivationLink pairs a signed registration token with the magic link that
// embeds it.
type ActivationLink struct {
	ActivationToken string
	MagicLink       string
}

// ActivationCode pairs a login challenge code with the signed token that
// binds it to the account being challenged.
type ActivationCode struct {
	Code            string
	ActivationToken string
}

// TokenCodec signs and verifies the short-lived tokens the flows exchange
// with users.
type TokenCodec interface {
	GenerateActivationLink(payload RegistrationPayload) (ActivationLink, error)
	GenerateActivationCode(user PublicUserInfo) (ActivationCode, error)
	VerifyActivationToken(token string) (ActivationPayload, error)
	DecodeRefreshToken(token string) (string, error)
}

// TokenServiceImpl implements the TokenCodec interface
type TokenServiceImpl struct {
	signingKey    []byte
	refreshSecret []byte
	ttl           time.Duration
	issuer        string
	audience      jwt.ClaimStrings
	baseURL       string
	logger        Logger
	now           func() time.Time
}

var _ TokenCodec = (*TokenServiceImpl)(nil)

// NewTokenService creates a new TokenCodec instance
func NewTokenService(signingKey []byte, ttl time.Duration, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	if ttl <= 0 {
		ttl = DefaultActivationTokenTTL
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
		now:        time.Now,
	}
}

// NewTokenServiceFromConfig wires a TokenCodec from activation flow options.
func NewTokenServiceFromConfig(cfg Config, logger Logger) *TokenServiceImpl {
	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetActivationTokenTTL(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		logger,
	).
		WithRefreshSecret([]byte(cfg.GetRefreshSecret())).
		WithActivationBaseURL(cfg.GetActivationBaseURL())
}

// WithRefreshSecret sets the server-held secret used to decode refresh
// tokens. Without it DecodeRefreshToken always fails.
func (ts *TokenServiceImpl) WithRefreshSecret(secret []byte) *TokenServiceImpl {
	ts.refreshSecret = secret
	return ts
}

// WithActivationBaseURL sets the URL magic links are built from.
func (ts *TokenServiceImpl) WithActivationBaseURL(base string) *TokenServiceImpl {
	ts.baseURL = base
	return ts
}

// WithClock injects a custom clock (useful for tests).
func (ts *TokenServiceImpl) WithClock(clock func() time.Time) *TokenServiceImpl {
	if clock != nil {
		ts.now = clock
	}
	return ts
}

// GenerateActivationLink signs a short-lived token carrying a pending
// registration and wraps it in a magic link.
func (ts *TokenServiceImpl) GenerateActivationLink(payload RegistrationPayload) (ActivationLink, error) {
	claims := &ActivationClaims{
		RegisteredClaims: ts.registeredClaims(payload.Email),
		Condition:        ConditionNewAccount,
		Email:            payload.Email,
		PasswordHash:     payload.PasswordHash,
		Name:             payload.Name,
	}

	token, err := ts.sign(claims)
	if err != nil {
		return ActivationLink{}, err
	}

	return ActivationLink{
		ActivationToken: token,
		MagicLink:       ts.magicLink(token),
	}, nil
}

// GenerateActivationCode signs a short-lived token binding a fresh challenge
// code to the account being logged into.
func (ts *TokenServiceImpl) GenerateActivationCode(user PublicUserInfo) (ActivationCode, error) {
	code, err := generateNumericCode(ActivationCodeLength)
	if err != nil {
		return ActivationCode{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate activation code")
	}

	claims := &ActivationClaims{
		RegisteredClaims: ts.registeredClaims(user.Email),
		Condition:        ConditionExistingAccount,
		Code:             code,
		User:             user,
	}

	token, err := ts.sign(claims)
	if err != nil {
		return ActivationCode{}, err
	}

	return ActivationCode{Code: code, ActivationToken: token}, nil
}

// VerifyActivationToken parses and validates an activation token, returning
// the decoded payload. Tokens past their TTL surface ErrTokenExpired, any
// other parse or signature failure surfaces ErrTokenMalformed.
func (ts *TokenServiceImpl) VerifyActivationToken(tokenString string) (ActivationPayload, error) {
	claims := &ActivationClaims{}
	if err := ts.parse(tokenString, claims, ts.signingKey); err != nil {
		return nil, err
	}
	return claims.payload()
}

// DecodeRefreshToken verifies a refresh token against the refresh secret and
// returns the user id it was issued for.
func (ts *TokenServiceImpl) DecodeRefreshToken(tokenString string) (string, error) {
	if len(ts.refreshSecret) == 0 {
		return "", goerrors.New("refresh secret is not configured", goerrors.CategoryInternal)
	}

	claims := &RefreshClaims{}
	if err := ts.parse(tokenString, claims, ts.refreshSecret); err != nil {
		return "", err
	}

	return claims.UserID(), nil
}

func (ts *TokenServiceImpl) registeredClaims(subject string) jwt.RegisteredClaims {
	now := ts.now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	return jwt.RegisteredClaims{
		Issuer:    ts.issuer,
		Subject:   subject,
		Audience:  aud,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
	}
}

func (ts *TokenServiceImpl) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenServiceImpl) parse(tokenString string, claims jwt.Claims, key []byte) error {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService parse encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if !token.Valid {
		ts.logger.Error("TokenService parse could not validate claims")
		return ErrTokenMalformed
	}

	return nil
}

func (ts *TokenServiceImpl) magicLink(token string) string {
	if ts.baseURL == "" {
		return token
	}
	return fmt.Sprintf("%s?token=%s", ts.baseURL, url.QueryEscape(token))
}

func generateNumericCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
