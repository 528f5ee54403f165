package ports

import "context"

// DomainProvider serves PDDL domain files by base name. Unknown names are
// ErrNotFound; names that try to leave the provider root are ErrInvalidPath.
type DomainProvider interface {
	Names(ctx context.Context) ([]string, error)
	File(ctx context.Context, name string) ([]byte, error)
}
