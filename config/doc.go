// Package config loads service configuration with viper.
//
// Values come from config.yml, then a .env file (via godotenv), then the
// process environment. Sections own their defaults and validation through
// ApplyDefaults and Validate methods; the loader only fills the struct.
package config
