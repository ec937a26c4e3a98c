package device

// Config holds device registry settings.
type Config struct {
	// MaxDevices caps each user's device list.
	MaxDevices int `env:"DEVICE_MAX_PER_USER" envDefault:"10"`
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{MaxDevices: 10}
}
