// Package config loads configuration for restverb clients and the services
// that host them.
//
// It uses Viper to read a YAML file, godotenv to load a .env file, and
// overlays environment variables that carry the service's prefix before
// unmarshalling into the caller's struct via mapstructure tags.
//
// # Usage
//
//	var cfg MyConfig
//	err := config.LoadConfig("items-api", &cfg)
//
// With the default prefix, ITEMS_API_BASE_URL overrides base_url and
// ITEMS_API_LOGGING_LEVEL overrides logging.level.
package config
