// Package config loads mum's engine configuration.
package config
