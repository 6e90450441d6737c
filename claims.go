package activation

import (
	"github.com/golang-jwt/jwt/v5"
)

// Condition selects which account path a verification request takes.
type Condition string

const (
	// ConditionNewAccount finalizes a pending registration.
	ConditionNewAccount Condition = "newAccount"
	// ConditionExistingAccount confirms a login challenge for an account
	// that already exists.
	ConditionExistingAccount Condition = "existingAccount"
)

// ParseCondition validates a condition arriving from untyped wire input.
func ParseCondition(raw string) (Condition, error) {
	switch Condition(raw) {
	case ConditionNewAccount:
		return ConditionNewAccount, nil
	case ConditionExistingAccount:
		return ConditionExistingAccount, nil
	default:
		return "", ErrUnknownCondition
	}
}

// ActivationClaims is the wire shape of an activation token. Condition tags
// which payload fields are populated: registration fields for newAccount,
// challenge fields for existingAccount.
type ActivationClaims struct {
	jwt.RegisteredClaims
	Condition Condition `json:"cnd,omitempty"`

	// Registration payload, set when Condition is newAccount.
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"password,omitempty"`
	Name         string `json:"name,omitempty"`

	// Challenge payload, set when Condition is existingAccount.
	Code string         `json:"code,omitempty"`
	User PublicUserInfo `json:"user,omitempty"`
}

// RefreshClaims is the wire shape of a refresh token signed with the
// server-held refresh secret.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid,omitempty"`
}

// UserID returns the user ID the refresh token was issued for.
func (c *RefreshClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// ActivationPayload is the decoded content of a verified activation token.
// Exactly one concrete payload type backs any given token; callers switch on
// the concrete type rather than inspecting a condition string.
type ActivationPayload interface {
	PayloadCondition() Condition
}

// RegistrationPayload carries a pending registration through the magic-link
// round trip. The password is already hashed at registration time; plaintext
// never enters a token.
type RegistrationPayload struct {
	Email        string
	PasswordHash string
	Name         string
}

// PayloadCondition implements ActivationPayload.
func (RegistrationPayload) PayloadCondition() Condition { return ConditionNewAccount }

// ChallengePayload carries a login activation code bound to the account it
// challenges.
type ChallengePayload struct {
	Code string
	User PublicUserInfo
}

// PayloadCondition implements ActivationPayload.
func (ChallengePayload) PayloadCondition() Condition { return ConditionExistingAccount }

func (c *ActivationClaims) payload() (ActivationPayload, error) {
	switch c.Condition {
	case ConditionNewAccount:
		return RegistrationPayload{
			Email:        c.Email,
			PasswordHash: c.PasswordHash,
			Name:         c.Name,
		}, nil
	case ConditionExistingAccount:
		return ChallengePayload{
			Code: c.Code,
			User: c.User,
		}, nil
	default:
		return nil, ErrUnknownCondition
	}
}
