package orientation

// Config holds orientation detection and deskew settings.
type Config struct {
	MaxSkewAngle  float64
	MinConfidence float64
	EnableDeskew  bool
}

// DefaultConfig returns the standard orientation settings.
func DefaultConfig() Config {
	return Config{
		MaxSkewAngle:  10.0,
		MinConfidence: 0.6,
		EnableDeskew:  true,
	}
}
