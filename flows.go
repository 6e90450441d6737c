package activation

import (
	"context"
	"crypto/subtle"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RegisterInput is the payload a registration starts from.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate enforces the registration rules before any collaborator is hit.
func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
		validation.Field(&r.Name, validation.Required),
	)
}

// LoginResult is the outcome of a login attempt: either the public record
// when the throttle window lets the challenge be skipped, or a challenge
// token the caller must bring back through VerifyAccount.
type LoginResult struct {
	User           *PublicUserInfo
	ChallengeToken string
}

// Challenged reports whether the caller owes an activation code round trip.
func (r LoginResult) Challenged() bool {
	return r.ChallengeToken != ""
}

// Flows composes the token codec, account store, activity cache, and
// notifier into the user-facing registration and login operations.
type Flows struct {
	store    AccountStore
	cache    ActivityStore
	tokens   TokenCodec
	notifier Notifier
	logger   Logger
	now      func() time.Time
}

// NewFlows returns the auth flow orchestrator.
func NewFlows(store AccountStore, cache ActivityStore, tokens TokenCodec) *Flows {
	return &Flows{
		store:    store,
		cache:    cache,
		tokens:   tokens,
		notifier: noopNotifier{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

func (f *Flows) WithLogger(logger Logger) *Flows {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// WithNotifier configures the out-of-band message consumer.
func (f *Flows) WithNotifier(n Notifier) *Flows {
	f.notifier = normalizeNotifier(n)
	return f
}

// WithClock injects a custom clock (useful for tests).
func (f *Flows) WithClock(clock func() time.Time) *Flows {
	if clock != nil {
		f.now = clock
	}
	return f
}

// Register starts a new-account flow: it rejects taken emails, hashes the
// password, and hands back a signed activation token whose magic link goes
// out by email. The account is not created until the token comes back
// through VerifyAccount.
func (f *Flows) Register(ctx context.Context, input RegisterInput) (string, error) {
	token, err := f.register(ctx, input)
	if err != nil {
		return "", WrapServiceError(err)
	}
	return token, nil
}

func (f *Flows) register(ctx context.Context, input RegisterInput) (string, error) {
	if err := input.Validate(); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithCode(goerrors.CodeBadRequest)
	}

	email := NormalizeEmail(input.Email)

	if err := f.ensureEmailAvailable(ctx, email); err != nil {
		return "", err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	link, err := f.tokens.GenerateActivationLink(RegistrationPayload{
		Email:        email,
		PasswordHash: hash,
		Name:         input.Name,
	})
	if err != nil {
		return "", err
	}

	f.notify(ctx, Notification{
		Type:      NotificationMagicLink,
		Email:     email,
		MagicLink: link.MagicLink,
	})

	return link.ActivationToken, nil
}

// VerifyAccount is the single entrypoint both account paths converge on. The
// condition names the path the caller expects; the token payload decides the
// path the token was minted for, and the two must agree.
func (f *Flows) VerifyAccount(ctx context.Context, token string, condition Condition, code string) (PublicUserInfo, error) {
	user, err := f.verifyAccount(ctx, token, condition, code)
	if err != nil {
		return PublicUserInfo{}, WrapServiceError(err)
	}
	return user, nil
}

func (f *Flows) verifyAccount(ctx context.Context, token string, condition Condition, code string) (PublicUserInfo, error) {
	if _, err := ParseCondition(string(condition)); err != nil {
		return PublicUserInfo{}, err
	}

	payload, err := f.tokens.VerifyActivationToken(token)
	if err != nil {
		return PublicUserInfo{}, err
	}

	if payload.PayloadCondition() != condition {
		f.logger.Error("VerifyAccount condition %q does not match token payload %q", condition, payload.PayloadCondition())
		return PublicUserInfo{}, ErrTokenMalformed
	}

	switch p := payload.(type) {
	case RegistrationPayload:
		return f.finalizeRegistration(ctx, p)
	case ChallengePayload:
		return f.confirmChallenge(ctx, p, code)
	default:
		return PublicUserInfo{}, ErrUnknownCondition
	}
}

// finalizeRegistration creates the account carried by a magic-link token.
// The availability re-check narrows the race window between token issuance
// and redemption; the store's unique constraint is the actual guarantee.
func (f *Flows) finalizeRegistration(ctx context.Context, payload RegistrationPayload) (PublicUserInfo, error) {
	if err := f.ensureEmailAvailable(ctx, payload.Email); err != nil {
		return PublicUserInfo{}, err
	}

	record, err := f.store.Insert(ctx, &User{
		Email:        payload.Email,
		Name:         payload.Name,
		PasswordHash: payload.PasswordHash,
	})
	if err != nil {
		return PublicUserInfo{}, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	return record.Public(), nil
}

func (f *Flows) confirmChallenge(ctx context.Context, payload ChallengePayload, code string) (PublicUserInfo, error) {
	if code == "" || subtle.ConstantTimeCompare([]byte(code), []byte(payload.Code)) != 1 {
		return PublicUserInfo{}, ErrInvalidVerifyCode
	}

	record, err := f.store.FindByEmail(ctx, payload.User.Email, FullRecord)
	if err != nil {
		return PublicUserInfo{}, err
	}

	return record.Public(), nil
}

// Login verifies credentials and either returns the public record directly,
// when the throttle counter shows a recent verified login from the same IP,
// or issues an activation code challenge.
func (f *Flows) Login(ctx context.Context, email, password, ipAddress string) (LoginResult, error) {
	result, err := f.login(ctx, email, password, ipAddress)
	if err != nil {
		return LoginResult{}, WrapServiceError(err)
	}
	return result, nil
}

func (f *Flows) login(ctx context.Context, email, password, ipAddress string) (LoginResult, error) {
	record, err := f.store.FindByEmail(ctx, email, FullRecord)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return LoginResult{}, ErrMismatchedHashAndPassword
		}
		return LoginResult{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if !record.HasPassword() {
		return LoginResult{}, ErrMismatchedHashAndPassword
	}

	if err := ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		return LoginResult{}, err
	}

	activity, err := f.cache.LoginActivity(ctx, ipAddress)
	if err != nil {
		return LoginResult{}, err
	}

	if activity > 0 {
		public := record.Public()
		return LoginResult{User: &public}, nil
	}

	challenge, err := f.tokens.GenerateActivationCode(record.Public())
	if err != nil {
		return LoginResult{}, err
	}

	f.notify(ctx, Notification{
		Type:  NotificationActivationCode,
		Email: record.Email,
		Code:  challenge.Code,
	})

	return LoginResult{ChallengeToken: challenge.ActivationToken}, nil
}

// SocialAuth logs in or creates an account from a third-party identity
// assertion. Social identities are trusted by construction, so no activation
// challenge is issued and the stored record has no password.
func (f *Flows) SocialAuth(ctx context.Context, name, email, image string) (PublicUserInfo, error) {
	user, err := f.socialAuth(ctx, name, email, image)
	if err != nil {
		return PublicUserInfo{}, WrapServiceError(err)
	}
	return user, nil
}

func (f *Flows) socialAuth(ctx context.Context, name, email, image string) (PublicUserInfo, error) {
	record, err := f.store.FindByEmail(ctx, email, ModifiedRecord)
	if err == nil {
		return record.Public(), nil
	}
	if !goerrors.IsNotFound(err) {
		return PublicUserInfo{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during social auth")
	}

	created, err := f.store.Insert(ctx, &User{
		Email: NormalizeEmail(email),
		Name:  name,
		Image: image,
	})
	if err != nil {
		return PublicUserInfo{}, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	return created.Public(), nil
}

// RefreshToken validates a refresh token against the server-held refresh
// secret and the session cache. The cached record is what gets returned: the
// cache, not the token payload, decides whether the session is still live.
func (f *Flows) RefreshToken(ctx context.Context, token string) (PublicUserInfo, error) {
	user, err := f.refreshToken(ctx, token)
	if err != nil {
		return PublicUserInfo{}, WrapServiceError(err)
	}
	return user, nil
}

func (f *Flows) refreshToken(ctx context.Context, token string) (PublicUserInfo, error) {
	userID, err := f.tokens.DecodeRefreshToken(token)
	if err != nil {
		return PublicUserInfo{}, goerrors.Wrap(err, ErrLoginRequired.Category, ErrLoginRequired.Message).
			WithTextCode(ErrLoginRequired.TextCode).
			WithCode(ErrLoginRequired.Code)
	}

	session, err := f.cache.Session(ctx, userID)
	if err != nil {
		return PublicUserInfo{}, err
	}

	if session.ID == uuid.Nil && session.Email == "" {
		return PublicUserInfo{}, ErrLoginRequired
	}

	return session, nil
}

// EmailCheck reports whether an account exists for the email, returning the
// record at full fidelity when it does.
func (f *Flows) EmailCheck(ctx context.Context, email string) (PublicUserInfo, bool, error) {
	record, err := f.store.FindByEmail(ctx, email, FullRecord)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return PublicUserInfo{}, false, nil
		}
		return PublicUserInfo{}, false, err
	}
	return record.Public(), true, nil
}

func (f *Flows) ensureEmailAvailable(ctx context.Context, email string) error {
	_, err := f.store.FindByEmail(ctx, email, ModifiedRecord)
	if err == nil {
		return ErrEmailAlreadyExists
	}
	if goerrors.IsNotFound(err) {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
}

// notify hands a notification to the configured sink. Delivery failures are
// logged and dropped, a failed email never fails the flow that queued it.
func (f *Flows) notify(ctx context.Context, n Notification) {
	n.SentAt = f.now()
	if err := f.notifier.Notify(ctx, n); err != nil {
		f.logger.Error("Notifier failed to deliver %s to %s: %v", n.Type, n.Email, err)
	}
}
