package rest

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"

	"github.com/gemstone-system/gemauth"
)

// DefaultPasswordMinLength applies when no policy is configured.
const DefaultPasswordMinLength = 8

// PasswordPolicy carries the minimum length enforced on every endpoint
// that accepts a new password.
type PasswordPolicy struct {
	MinLength int
}

func (p PasswordPolicy) passwordRules() []validation.Rule {
	min := p.MinLength
	if min <= 0 {
		min = DefaultPasswordMinLength
	}
	return []validation.Rule{validation.Required, validation.Length(min, 100)}
}

// ValidateStringEquals builds a rule that checks a field matches str.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber accepts E.164 style numbers and common national
// formats. Empty values pass, pair with validation.Required when the
// field is mandatory.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return errors.New("must be a valid phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}
	return nil
}

type RegisterPayload struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Phone           string `json:"phone"`
}

func (r RegisterPayload) Validate(policy PasswordPolicy) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, policy.passwordRules()...),
		validation.Field(&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
	)
}

type RegisterProfessionalPayload struct {
	RegisterPayload
	ProfessionalType  string `json:"professionalType"`
	BusinessName      string `json:"businessName"`
	LicenseNumber     string `json:"licenseNumber"`
	YearsOfExperience *int   `json:"yearsOfExperience"`
}

func (r RegisterProfessionalPayload) Validate(policy PasswordPolicy) error {
	if err := r.RegisterPayload.Validate(policy); err != nil {
		return err
	}

	return validation.ValidateStruct(&r,
		validation.Field(&r.ProfessionalType,
			validation.Required,
			validation.In(
				gemauth.RoleDealer.String(),
				gemauth.RoleCutter.String(),
				gemauth.RoleAppraiser.String(),
			),
		),
		validation.Field(&r.BusinessName, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.LicenseNumber, validation.Length(0, 100)),
		validation.Field(&r.YearsOfExperience, validation.Min(0), validation.Max(80)),
	)
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type ForgotPasswordPayload struct {
	Email string `json:"email"`
}

func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type ResetPasswordPayload struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r ResetPasswordPayload) Validate(policy PasswordPolicy) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, policy.passwordRules()...),
		validation.Field(&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

type VerifyEmailPayload struct {
	Token string `json:"token"`
}

func (r VerifyEmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r ChangePasswordPayload) Validate(policy PasswordPolicy) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, policy.passwordRules()...),
		validation.Field(&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

// RefreshPayload is optional, the refresh token may arrive as a cookie
// instead of a body field.
type RefreshPayload struct {
	RefreshToken string `json:"refreshToken"`
}
