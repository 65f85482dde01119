//go:build !race

package userauth

// Work factor 10 matches the cost existing stored hashes were produced
// with; changing it would not invalidate them but keeps new hashes
// consistent.
func passwordHashCost() int {
	return 10
}
