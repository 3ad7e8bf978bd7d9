//go:build !race

package gemauth

func passwordHashCost() int {
	return 10
}
