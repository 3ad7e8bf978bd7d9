package gemauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationStatus tracks the review state of a professional profile.
type VerificationStatus string

const (
	// VerificationPending means the profile awaits admin review.
	VerificationPending VerificationStatus = "pending"
	// VerificationVerified means an admin approved the profile.
	VerificationVerified VerificationStatus = "verified"
	// VerificationRejected means an admin rejected the profile.
	VerificationRejected VerificationStatus = "rejected"
)

// User is a marketplace account. Password and the one-time tokens never
// leave the server, they are excluded from JSON output.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u" json:"-"`

	ID                     uuid.UUID  `bun:"id,pk,notnull" json:"id"`
	Name                   string     `bun:"name,notnull" json:"name"`
	Email                  string     `bun:"email,notnull,unique" json:"email"`
	Password               string     `bun:"password,notnull" json:"-"`
	Role                   Role       `bun:"role,notnull" json:"role"`
	Phone                  *string    `bun:"phone" json:"phone,omitempty"`
	IsEmailVerified        bool       `bun:"is_email_verified,notnull,default:false" json:"is_email_verified"`
	EmailVerificationToken *string    `bun:"email_verification_token" json:"-"`
	ResetPasswordToken     *string    `bun:"reset_password_token" json:"-"`
	ResetPasswordExpires   *time.Time `bun:"reset_password_expires" json:"-"`
	LastLogin              *time.Time `bun:"last_login" json:"last_login,omitempty"`
	CreatedAt              time.Time  `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt              time.Time  `bun:"updated_at,notnull" json:"updated_at"`

	Profile *ProfessionalProfile `bun:"rel:has-one,join:id=user_id" json:"profile,omitempty"`
}

// ProfessionalProfile holds the business details of dealer, cutter, and
// appraiser accounts. A profile is created in the same transaction as its
// user and starts out pending review.
type ProfessionalProfile struct {
	bun.BaseModel `bun:"table:professional_profiles,alias:pp" json:"-"`

	ID                 uuid.UUID          `bun:"id,pk,notnull" json:"id"`
	UserID             uuid.UUID          `bun:"user_id,notnull" json:"user_id"`
	ProfessionalType   Role               `bun:"professional_type,notnull" json:"professional_type"`
	BusinessName       string             `bun:"business_name,notnull" json:"business_name"`
	LicenseNumber      *string            `bun:"license_number" json:"license_number,omitempty"`
	YearsOfExperience  *int               `bun:"years_of_experience" json:"years_of_experience,omitempty"`
	VerificationStatus VerificationStatus `bun:"verification_status,notnull,default:'pending'" json:"verification_status"`
	CreatedAt          time.Time          `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt          time.Time          `bun:"updated_at,notnull" json:"updated_at"`
}

// GetUserID makes profiles usable with ownership guards.
func (p *ProfessionalProfile) GetUserID() uuid.UUID {
	return p.UserID
}

// UserOwned is implemented by records that belong to the user who created
// them. Ownership guards check it before OwnerOwned.
type UserOwned interface {
	GetUserID() uuid.UUID
}

// OwnerOwned is implemented by records whose owning user is tracked in a
// dedicated owner column rather than user_id.
type OwnerOwned interface {
	GetOwnerID() uuid.UUID
}
