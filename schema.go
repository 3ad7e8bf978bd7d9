package gemauth

import (
	"context"

	"github.com/uptrace/bun"
)

// Schema DDL kept portable between Postgres and the sqlite used in tests.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	email VARCHAR(255) NOT NULL UNIQUE,
	password VARCHAR(255) NOT NULL,
	role VARCHAR(20) NOT NULL DEFAULT 'user',
	phone VARCHAR(30),
	is_email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	email_verification_token VARCHAR(64),
	reset_password_token VARCHAR(64),
	reset_password_expires TIMESTAMP,
	last_login TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS professional_profiles (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	user_id VARCHAR(36) NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	professional_type VARCHAR(20) NOT NULL,
	business_name VARCHAR(200) NOT NULL,
	license_number VARCHAR(100),
	years_of_experience INTEGER,
	verification_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);`,
	`CREATE INDEX IF NOT EXISTS idx_profiles_user_id ON professional_profiles (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_profiles_status ON professional_profiles (verification_status);`,
}

// EnsureSchema creates the auth tables when they do not exist yet. Real
// deployments run managed migrations, this covers development and tests.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
