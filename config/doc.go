// Package config loads service configuration from YAML files and the
// environment using viper, with optional .env file support via godotenv.
//
// Typical use with the lifecycle package:
//
//	var opts lifecycle.Options
//	if err := config.LoadConfig("billing", &opts); err != nil { ... }
package config
