package match

import "context"

// Repository persists assembled write-sets.
type Repository interface {
	// Exists reports whether a match row with the given id is stored.
	Exists(ctx context.Context, gameID string) (bool, error)
	// Commit writes the whole set in one transaction. A conflict on the match
	// table yields ErrAlreadyExists.
	Commit(ctx context.Context, set WriteSet) error
}
