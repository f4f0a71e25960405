package memtable

import (
	"github.com/pkg/errors"

	"github.com/wellls/pomegranate/skiplist"
)

// ErrInvalidConfig is returned by New for unusable settings.
var ErrInvalidConfig = errors.New("invalid memtable config")

// Config configures a Table.
type Config struct {
	// FlushThreshold is the entry count at which ShouldFlush reports true.
	// It is handed to every list as its size hint. Zero disables the check.
	FlushThreshold int
	// MaxHeight caps the height of skip list nodes.
	MaxHeight int
	// Heights overrides the geometric height generator. It is shared by
	// every generation and only called with the write lock held.
	Heights skiplist.HeightGenerator
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FlushThreshold: 1 << 14,
		MaxHeight:      skiplist.DefaultMaxHeight,
	}
}

func (c Config) validate() error {
	if c.FlushThreshold < 0 {
		return errors.Wrapf(ErrInvalidConfig, "flush threshold %d", c.FlushThreshold)
	}
	if c.MaxHeight < 1 || c.MaxHeight > skiplist.MaxHeight {
		return errors.Wrapf(ErrInvalidConfig, "max height %d not in [1, %d]", c.MaxHeight, skiplist.MaxHeight)
	}
	return nil
}
