package qpack

// Limits from spec.md §6. LSQPACK_MAX_ABS_ID leaves the top bit of a
// 62-bit counter free so Required Insert Count arithmetic (modulo
// 2*max_entries, spec.md §4.5) never wraps a signed comparison.
const (
	MaxDynTableCapacity  = 1 << 30
	MaxMaxRiskedStreams  = 1 << 16
	MaxAbsID             = (uint64(1) << 62) - 1
)

// Config holds the connection-scoped parameters for an Encoder or
// Decoder. Mirrors http2.ConnectionConfig's shape: a plain struct with a
// constructor supplying defaults and a Validate method.
type Config struct {
	// MaxTableCapacity is the maximum number of bytes the dynamic table
	// may hold (spec.md §4.3/§4.4 "capacity-bounded FIFO eviction").
	MaxTableCapacity uint64

	// MaxRiskedStreams bounds how many streams may simultaneously carry
	// an unacknowledged ("at risk") reference (spec.md §4.5 risk policy,
	// §4.8 BlockedStreams).
	MaxRiskedStreams uint64

	// MaxFieldSectionSize is a size limit for a single encoded header
	// block; 0 means unbounded. The field mirrors
	// http2.ConnectionConfig.MaxStreamBufferSize. The Decoder does not
	// check it: header blocks of any size are accepted.
	MaxFieldSectionSize uint64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxTableCapacity:    4096,
		MaxRiskedStreams:    100,
		MaxFieldSectionSize: 64 * 1024,
	}
}

// Validate validates the configuration, matching http2.ConnectionConfig's
// Validate contract.
func (c *Config) Validate() error {
	if c.MaxTableCapacity > MaxDynTableCapacity {
		return ErrInvalidConfig
	}
	if c.MaxRiskedStreams > MaxMaxRiskedStreams {
		return ErrInvalidConfig
	}
	return nil
}
