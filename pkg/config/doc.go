// Package config loads environment-driven configuration structs.
//
// Structs declare their variables with caarlos0/env tags:
//
//	type Config struct {
//	    MaxDevices int `env:"DEVICE_MAX_PER_USER" envDefault:"10"`
//	}
//
// A .env file in the working directory is loaded once through godotenv
// before the first Load.
package config
