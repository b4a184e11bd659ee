// Package config provides configuration loading for applications that
// embed the objfetch request layer.
//
// It uses Viper to load configuration from a YAML file, layers a .env
// file and environment variables on top, and unmarshals the result
// into a caller-provided struct via mapstructure tags.
//
// # Usage
//
//	var cfg MyConfig
//	err := config.LoadConfig("my-app", &cfg)
package config
