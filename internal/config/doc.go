// Package config loads, normalizes, and validates arremsync configuration.
//
// Settings come from an optional TOML file, an optional .env file, and ARREM_
// prefixed environment variables, in increasing order of precedence. Arr
// instances can be declared as [[arr]] tables or through the numbered
// ARREM_ARR_{n}_* convention, which stops scanning at the first incomplete
// index.
//
// Always obtain settings through Load so downstream code receives trimmed
// URLs, lower-cased instance types, and clear validation errors.
package config
