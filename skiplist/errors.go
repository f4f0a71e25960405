package skiplist

import "github.com/pkg/errors"

var (
	// ErrKeyNotFound is returned by queries that need a key to be present.
	ErrKeyNotFound = errors.New("key not found")
	// ErrBrokenLink is returned when a walk along one level cannot reach the
	// node it was asked to reach. It signals corrupted links, never an empty
	// range.
	ErrBrokenLink = errors.New("link chain does not reach its end node")
	// ErrMalformedList reports a violated structural invariant.
	ErrMalformedList = errors.New("skip list invariant violated")
	// ErrInvalidHeight is returned for a max height outside [1, MaxHeight].
	ErrInvalidHeight = errors.New("invalid max height")
	// ErrInvalidProbability is returned for a promotion probability outside (0, 1).
	ErrInvalidProbability = errors.New("invalid level promotion probability")
)
