package gemauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tokens is the signed pair handed to a client after authentication.
type Tokens struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterInput carries a plain account registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
}

// RegisterProfessionalInput carries a professional registration. The
// profile fields commit in the same transaction as the account.
type RegisterProfessionalInput struct {
	RegisterInput
	ProfessionalType  Role
	BusinessName      string
	LicenseNumber     *string
	YearsOfExperience *int
}

// Service drives the account lifecycle.
type Service struct {
	repo      RepositoryManager
	tokens    TokenService
	mail      Sender
	logger    Logger
	baseURL   string
	resetTTL  time.Duration
	useHashid bool
}

// Sender is the slice of the mailer this package needs.
type Sender interface {
	SendVerification(ctx context.Context, to, name, baseURL, token string) error
	SendPasswordReset(ctx context.Context, to, name, baseURL, token string) error
}

// NewService wires the account lifecycle service.
func NewService(repo RepositoryManager, tokens TokenService, mail Sender) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		mail:     mail,
		logger:   defLogger{},
		resetTTL: time.Hour,
	}
}

// WithLogger sets the logger.
func (s *Service) WithLogger(logger Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithBaseURL sets the public URL used to build email links.
func (s *Service) WithBaseURL(baseURL string) *Service {
	s.baseURL = baseURL
	return s
}

// WithResetTTL overrides the one hour reset token lifetime.
func (s *Service) WithResetTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.resetTTL = ttl
	}
	return s
}

// WithHashidIDs derives user ids deterministically from the email address
// instead of generating random ones. Useful for idempotent imports.
func (s *Service) WithHashidIDs(enabled bool) *Service {
	s.useHashid = enabled
	return s
}

// Register creates a regular account, emails the verification link, and
// returns a signed session so the client is logged in right away.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, *Tokens, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := s.createUser(ctx, nil, input, RoleUser)
	if err != nil {
		return nil, nil, err
	}

	s.notifyVerification(user)

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// RegisterProfessional creates a dealer, cutter, or appraiser account with
// its pending profile in one transaction. A failed profile insert leaves no
// half registered user behind.
func (s *Service) RegisterProfessional(ctx context.Context, input RegisterProfessionalInput) (*User, *Tokens, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if !input.ProfessionalType.IsProfessional() {
		return nil, nil, goerrors.New("professional type must be dealer, cutter, or appraiser", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"professional_type": input.ProfessionalType.String()})
	}

	var user *User
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = s.createUserTx(ctx, tx, input.RegisterInput, input.ProfessionalType); err != nil {
			return err
		}

		profile := &ProfessionalProfile{
			UserID:            user.ID,
			ProfessionalType:  input.ProfessionalType,
			BusinessName:      input.BusinessName,
			LicenseNumber:     input.LicenseNumber,
			YearsOfExperience: input.YearsOfExperience,
		}

		if user.Profile, err = s.repo.Professionals().CreateForUserTx(ctx, tx, profile); err != nil {
			return TranslateStorageError(err)
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, nil, richErr
		}
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "professional registration transaction failed")
	}

	s.notifyVerification(user)

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Login authenticates by email and password. Unknown accounts and wrong
// passwords produce the same error, and both paths run a bcrypt compare so
// response timing does not reveal which one happened.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *Tokens, error) {
	return s.login(ctx, email, password, "")
}

// LoginAdmin authenticates like Login but only admits admin accounts.
// Non admin credentials fail as if they were wrong.
func (s *Service) LoginAdmin(ctx context.Context, email, password string) (*User, *Tokens, error) {
	return s.login(ctx, email, password, RoleAdmin)
}

func (s *Service) login(ctx context.Context, email, password string, requiredRole Role) (*User, *Tokens, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			ComparePasswordAndHash(password, RandomPasswordHash())
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, TranslateStorageError(err)
	}

	if err := ComparePasswordAndHash(password, user.Password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if requiredRole != "" && user.Role != requiredRole {
		return nil, nil, ErrInvalidCredentials
	}

	// Best effort, a failed timestamp write should not block the login.
	if err := s.repo.Users().TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Warn("failed to track login for %s: %v", user.ID, err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// RefreshToken exchanges a valid refresh token for a fresh pair. The user
// is re-read so deleted accounts and stale roles stop refreshing.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	principal, err := PrincipalFromClaims(claims)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByID(ctx, principal.UserID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, tokenInvalid("user no longer exists")
		}
		return nil, TranslateStorageError(err)
	}

	return s.issueTokens(user)
}

// VerifyEmail marks the account behind the token as verified and burns the
// token. Unknown or already used tokens fail.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidVerificationToken
	}

	user, err := s.repo.Users().VerifyEmail(ctx, token)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, TranslateStorageError(err)
	}

	return user, nil
}

// ForgotPassword stores a one hour reset token and emails the reset link.
// It reports success even for unknown emails so the endpoint cannot be
// used to probe which accounts exist.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	token := uuid.NewString()
	expires := time.Now().Add(s.resetTTL)

	user, err := s.repo.Users().SetResetToken(ctx, email, token, expires)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return TranslateStorageError(err)
	}

	s.notifyPasswordReset(user, token)

	return nil
}

// ResetPassword sets a new password for the account holding the token, if
// the token is known and still inside its expiry window.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if _, err := s.repo.Users().ResetPasswordByToken(ctx, token, hash); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return TranslateStorageError(err)
	}

	return nil
}

// ChangePassword replaces the password of an authenticated user after
// re-checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.repo.Users().GetByID(ctx, userID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return TranslateStorageError(err)
	}

	if err := ComparePasswordAndHash(currentPassword, user.Password); err != nil {
		return ErrCurrentPasswordIncorrect
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.Users().UpdatePassword(ctx, userID, hash); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return TranslateStorageError(err)
	}

	return nil
}

// CurrentUser loads the account behind an authenticated principal.
func (s *Service) CurrentUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.repo.Users().GetByID(ctx, userID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, TranslateStorageError(err)
	}
	return user, nil
}

func (s *Service) createUser(ctx context.Context, tx bun.IDB, input RegisterInput, role Role) (*User, error) {
	if tx == nil {
		var user *User
		err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			var err error
			user, err = s.createUserTx(ctx, tx, input, role)
			return err
		})
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return nil, richErr
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "registration transaction failed")
		}
		return user, nil
	}
	return s.createUserTx(ctx, tx, input, role)
}

func (s *Service) createUserTx(ctx context.Context, tx bun.IDB, input RegisterInput, role Role) (*User, error) {
	if _, err := s.repo.Users().GetByEmailTx(ctx, tx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsRecordNotFound(err) {
		return nil, TranslateStorageError(err)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	verificationToken := uuid.NewString()
	user := &User{
		Name:                   input.Name,
		Email:                  input.Email,
		Password:               hash,
		Phone:                  input.Phone,
		Role:                   role,
		EmailVerificationToken: &verificationToken,
	}

	if s.useHashid {
		if id, err := hashid.NewUUID(user.Email); err == nil {
			user.ID = id
		}
	}

	if user, err = s.repo.Users().RegisterTx(ctx, tx, user); err != nil {
		// Concurrent registration of the same email lands here as a
		// unique violation.
		return nil, TranslateStorageError(err)
	}

	return user, nil
}

func (s *Service) issueTokens(user *User) (*Tokens, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) notifyVerification(user *User) {
	if s.mail == nil || user.EmailVerificationToken == nil {
		return
	}

	to, name, token := user.Email, user.Name, *user.EmailVerificationToken
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		if err := s.mail.SendVerification(ctx, to, name, s.baseURL, token); err != nil {
			s.logger.Warn("failed to send verification email: %v", err)
		}
	}()
}

func (s *Service) notifyPasswordReset(user *User, token string) {
	if s.mail == nil {
		return
	}

	to, name := user.Email, user.Name
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		if err := s.mail.SendPasswordReset(ctx, to, name, s.baseURL, token); err != nil {
			s.logger.Warn("failed to send password reset email: %v", err)
		}
	}()
}
