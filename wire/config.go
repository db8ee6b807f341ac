package wire

// DefaultRecursionLimit bounds message nesting when no explicit limit is set.
const DefaultRecursionLimit = 100

// Config controls optional codec behaviors. A Config is fixed at codec
// construction; compiled codecs never consult mutable global state.
type Config struct {
	// RecursionLimit bounds message nesting depth. Decoding input nested
	// deeper fails with ErrRecursionLimit; validating a record graph nested
	// deeper (including cyclic graphs) fails before any bytes are written.
	// Zero or negative means DefaultRecursionLimit.
	RecursionLimit int

	// AllowUnknownEnum: when true, decoding enums accepts numeric values
	// that are not declared members and surfaces them as their ordinal.
	// When false (default), unknown enum numbers cause a decode error.
	// Encoding always requires a declared member.
	AllowUnknownEnum bool

	// CaptureUnknown: when true, decoded records retain the raw bytes of
	// skipped unknown fields, readable via Record.Unknown. When false
	// (default), unknown fields are silently discarded.
	CaptureUnknown bool

	// SkipUTF8Validation: when true, string fields are not checked for
	// UTF-8 validity during encode validation.
	SkipUTF8Validation bool
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		RecursionLimit: DefaultRecursionLimit,
	}
}

func (c Config) recursionLimit() int {
	if c.RecursionLimit <= 0 {
		return DefaultRecursionLimit
	}
	return c.RecursionLimit
}
