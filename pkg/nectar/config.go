package nectar

const defaultMaxPartialDepth = 16

// Config holds the engine's render-behavior settings.
type Config struct {
	// Fallbacks maps a function or method name to a substitute value used
	// when an asynchronous call under that name fails during RenderAsync.
	// Synchronous failures never consult it, and the substitute skips the
	// escaper like any other call result.
	Fallbacks map[string]any `json:"fallbacks"`

	// MaxPartialDepth caps partial nesting so a partial that includes
	// itself cannot recurse forever.
	MaxPartialDepth int `json:"max_partial_depth"`
}

// DefaultConfig returns a Config with safe default values.
func DefaultConfig() *Config {
	return &Config{
		Fallbacks:       map[string]any{},
		MaxPartialDepth: defaultMaxPartialDepth,
	}
}
