// Package activation implements email-activation based registration and
// login flows: password hashing, short-lived signed activation tokens, an
// IP-keyed login throttle, and refresh-token validation backed by a session
// cache.
//
// Account paths:
//   - Register hashes the password and folds the pending registration into a
//     signed activation token; the account is only created when the token
//     returns through VerifyAccount with the newAccount condition.
//   - Login verifies credentials, then consults the per-IP activity counter.
//     A warm counter returns the public record directly; a cold one issues an
//     activation code bound to a token, redeemed through VerifyAccount with
//     the existingAccount condition.
//   - SocialAuth trusts the third-party identity assertion and skips the
//     challenge entirely.
//
// Notifications:
//   - Notifier is a best-effort emitter for magic links and activation codes.
//     Delivery failures are logged, never propagated, so a broken mail relay
//     cannot fail a registration that already minted a valid token.
//
// Sessions:
//   - RefreshToken decodes against a dedicated refresh secret and then defers
//     to the session cache: the cached record is the source of truth for
//     whether the session is still live, not the token payload.
package activation
