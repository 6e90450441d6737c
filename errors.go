package activation

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeEmailExists marks registration attempts against a taken email.
	TextCodeEmailExists = "EMAIL_ALREADY_EXISTS"
	// TextCodeInvalidCreds covers both unknown email and wrong password.
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	// TextCodeInvalidVerifyCode marks activation code mismatches.
	TextCodeInvalidVerifyCode = "INVALID_VERIFY_CODE"
	// TextCodeTokenExpired marks activation tokens past their TTL.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks tokens that fail signature or parse checks.
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeLoginRequired marks refresh attempts with no live session.
	TextCodeLoginRequired = "LOGIN_REQUIRED"
	// TextCodeUnknownCondition marks verification conditions we do not handle.
	TextCodeUnknownCondition = "UNKNOWN_CONDITION"
)

// ErrEmailAlreadyExists is returned when the email has a registered account.
var ErrEmailAlreadyExists = goerrors.New("email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(goerrors.CodeConflict)

// ErrMismatchedHashAndPassword covers unknown identifiers and bad passwords
// with a single error so callers cannot tell which check failed.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidVerifyCode is returned when the submitted activation code does
// not match the code bound to the activation token.
var ErrInvalidVerifyCode = goerrors.New("invalid verification code", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidVerifyCode).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for activation tokens past their expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or signature
// verification.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrLoginRequired is returned when a refresh token cannot be mapped to a
// live session.
var ErrLoginRequired = goerrors.New("login required", goerrors.CategoryAuth).
	WithTextCode(TextCodeLoginRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnknownCondition rejects verification conditions we do not recognize,
// typically values arriving from untyped wire input.
var ErrUnknownCondition = goerrors.New("unknown verification condition", goerrors.CategoryBadInput).
	WithTextCode(TextCodeUnknownCondition).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString guards against hashing empty passwords.
var ErrNoEmptyString = goerrors.New("value should not be an empty string", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// WrapServiceError is the uniform envelope every flow returns failures
// through. The message gets a stable prefix while the category, codes, and
// cause chain of the original error are preserved so callers can still
// branch on kind.
func WrapServiceError(err error) error {
	if err == nil {
		return nil
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		wrapped := goerrors.Wrap(err, rich.Category, fmt.Sprintf("An error occurred: %s", rich.Message)).
			WithCode(rich.Code)
		if rich.TextCode != "" {
			wrapped = wrapped.WithTextCode(rich.TextCode)
		}
		return wrapped
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, fmt.Sprintf("An error occurred: %s", err.Error())).
		WithCode(goerrors.CodeInternal)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsInvalidTokenError reports whether a token cannot be trusted, regardless
// of whether it expired or failed to parse.
func IsInvalidTokenError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return IsTokenExpiredError(err) ||
		strings.Contains(err.Error(), "token is malformed")
}
