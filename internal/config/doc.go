// Package config loads and validates the Prism settings descriptor and
// provides the application's default paths.
package config
