package gemauth

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	TextCodeInvalidCredentials    = "auth_invalid_credentials"
	TextCodeEmailTaken            = "auth_email_taken"
	TextCodeTokenExpired          = "auth_token_expired"
	TextCodeTokenInvalid          = "auth_token_invalid"
	TextCodeAuthRequired          = "auth_required"
	TextCodeInsufficientRole      = "auth_insufficient_role"
	TextCodeNotResourceOwner      = "auth_not_resource_owner"
	TextCodeUserNotFound          = "auth_user_not_found"
	TextCodeBadVerificationToken  = "auth_bad_verification_token"
	TextCodeBadResetToken         = "auth_bad_reset_token"
	TextCodeWrongCurrentPassword  = "auth_wrong_current_password"
	TextCodeMissingResourceID     = "auth_missing_resource_id"
	TextCodeForeignKeyViolation   = "storage_foreign_key_violation"
	TextCodeNotNullViolation      = "storage_not_null_violation"
	TextCodeUniqueViolation       = "storage_unique_violation"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords
// alike so login failures do not reveal which accounts exist.
var ErrInvalidCredentials = errors.New("Invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailTaken is returned when registering with an email already in use.
var ErrEmailTaken = errors.New("Email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrTokenExpired is returned when a session token's expiry has passed.
var ErrTokenExpired = errors.New("Token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid is returned for malformed, tampered, or wrong-flavor tokens.
var ErrTokenInvalid = errors.New("Invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrAuthenticationRequired is returned when a request carries no session.
var ErrAuthenticationRequired = errors.New("Authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeAuthRequired).
	WithCode(errors.CodeUnauthorized)

// ErrInsufficientRole is returned when an authenticated user's role does not
// grant access to the resource.
var ErrInsufficientRole = errors.New("Insufficient permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole).
	WithCode(errors.CodeForbidden)

// ErrNotResourceOwner is returned when a user acts on a record owned by
// somebody else.
var ErrNotResourceOwner = errors.New("You do not own this resource", errors.CategoryAuthz).
	WithTextCode(TextCodeNotResourceOwner).
	WithCode(errors.CodeForbidden)

// ErrUserNotFound is returned when an operation targets a missing account.
var ErrUserNotFound = errors.New("User not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidVerificationToken is returned when an email verification token
// matches no pending account.
var ErrInvalidVerificationToken = errors.New("Invalid verification token", errors.CategoryBadInput).
	WithTextCode(TextCodeBadVerificationToken).
	WithCode(errors.CodeBadRequest)

// ErrInvalidResetToken is returned when a password reset token is unknown
// or past its expiry window.
var ErrInvalidResetToken = errors.New("Invalid or expired reset token", errors.CategoryBadInput).
	WithTextCode(TextCodeBadResetToken).
	WithCode(errors.CodeBadRequest)

// ErrCurrentPasswordIncorrect is returned when a password change presents
// the wrong current password.
var ErrCurrentPasswordIncorrect = errors.New("Current password is incorrect", errors.CategoryBadInput).
	WithTextCode(TextCodeWrongCurrentPassword).
	WithCode(errors.CodeBadRequest)

// ErrMissingResourceID is returned when an ownership guard finds no
// resource identifier in the request path.
var ErrMissingResourceID = errors.New("Missing resource identifier", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingResourceID).
	WithCode(errors.CodeBadRequest)

// tokenInvalid builds a fresh invalid token error so the shared var never
// accumulates call site metadata.
func tokenInvalid(reason string) *errors.Error {
	return errors.New("Invalid token", errors.CategoryAuth).
		WithTextCode(TextCodeTokenInvalid).
		WithCode(errors.CodeUnauthorized).
		WithMetadata(map[string]any{"reason": reason})
}

func emailTaken(metadata map[string]any) *errors.Error {
	return errors.New("Email already registered", errors.CategoryConflict).
		WithTextCode(TextCodeEmailTaken).
		WithCode(errors.CodeConflict).
		WithMetadata(metadata)
}

// TranslateStorageError maps low level database failures to the structured
// errors the HTTP layer knows how to render. Postgres unique violations on
// users.email become ErrEmailTaken, other constraint classes keep their
// SQLSTATE in metadata. Errors that are already structured pass through.
func TranslateStorageError(err error) error {
	if err == nil {
		return nil
	}
	var richErr *errors.Error
	if stderrors.As(err, &richErr) {
		return err
	}

	var pgErr pgdriver.Error
	if stderrors.As(err, &pgErr) {
		code := pgErr.Field('C')
		switch code {
		case "23505": // unique_violation
			return emailTaken(map[string]any{
				"sqlstate":   code,
				"constraint": pgErr.Field('n'),
			})
		case "23503": // foreign_key_violation
			return errors.New("Referenced record does not exist", errors.CategoryBadInput).
				WithTextCode(TextCodeForeignKeyViolation).
				WithCode(errors.CodeBadRequest).
				WithMetadata(map[string]any{"sqlstate": code})
		case "23502": // not_null_violation
			return errors.New("Missing required field", errors.CategoryBadInput).
				WithTextCode(TextCodeNotNullViolation).
				WithCode(errors.CodeBadRequest).
				WithMetadata(map[string]any{"sqlstate": code, "column": pgErr.Field('c')})
		}
	}

	return errors.Wrap(err, errors.CategoryInternal, "storage operation failed").
		WithCode(errors.CodeInternal)
}
