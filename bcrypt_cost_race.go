//go:build race

package gemauth

import "golang.org/x/crypto/bcrypt"

func passwordHashCost() int {
	// Cheap cost so race-enabled suites run inside strict timeouts.
	return bcrypt.MinCost
}
