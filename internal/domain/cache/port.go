package cache

import "context"

// Backend port for snapshot persistence. Entries travel as an ordered
// sequence of opaque serialized blobs; both calls are assumed atomic at the
// granularity of one call, so the store inherits the backend's atomicity
// verbatim and no partial-write state is observable here.
type Backend interface {
	ReadAll(ctx context.Context) ([][]byte, error)
	WriteAll(ctx context.Context, blobs [][]byte) error
}
