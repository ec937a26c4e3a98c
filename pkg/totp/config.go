package totp

// Config holds the TOTP settings loaded from the environment.
type Config struct {
	// Issuer is the service name shown in authenticator apps.
	Issuer string `env:"TOTP_ISSUER" envDefault:"Notes"`
	// ImageSize is the edge of the provisioning barcode in pixels.
	ImageSize int `env:"TOTP_IMAGE_SIZE" envDefault:"256"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{Issuer: "Notes", ImageSize: 256}
}
