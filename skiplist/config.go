package skiplist

import "github.com/pkg/errors"

const (
	// MaxHeight is the hard ceiling on the number of levels a list may use.
	MaxHeight = 32
	// DefaultMaxHeight is the configured ceiling when none is given.
	DefaultMaxHeight = 16
	// DefaultProbability is the chance a node is promoted one more level.
	DefaultProbability = 0.5
)

// Config holds configuration for a List.
type Config struct {
	// maxHeight is the tallest a node may grow
	maxHeight int

	// p is the promotion probability used by the default height generator
	p float64

	// heights overrides the default generator
	heights HeightGenerator

	// sizeHint is the expected number of elements
	sizeHint int
}

// NewConfig creates a Config with default values.
func NewConfig() Config {
	return Config{
		maxHeight: DefaultMaxHeight,
		p:         DefaultProbability,
	}
}

// WithMaxHeight sets the maximum node height.
func WithMaxHeight(height int) func(*Config) {
	return func(c *Config) { c.maxHeight = height }
}

// WithProbability sets the promotion probability of the default generator.
func WithProbability(p float64) func(*Config) {
	return func(c *Config) { c.p = p }
}

// WithHeightGenerator replaces the default geometric generator. Heights it
// returns outside [1, max height] are clamped.
func WithHeightGenerator(g HeightGenerator) func(*Config) {
	return func(c *Config) { c.heights = g }
}

// WithSizeHint preallocates room for n elements.
func WithSizeHint(n int) func(*Config) {
	return func(c *Config) { c.sizeHint = n }
}

func (c Config) validate() error {
	if c.maxHeight < 1 || c.maxHeight > MaxHeight {
		return errors.Wrapf(ErrInvalidHeight, "max height %d not in [1, %d]", c.maxHeight, MaxHeight)
	}
	if c.heights == nil && (c.p <= 0 || c.p >= 1) {
		return errors.Wrapf(ErrInvalidProbability, "p = %v", c.p)
	}
	return nil
}
