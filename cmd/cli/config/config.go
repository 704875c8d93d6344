// Package config resolves where the CLI talks to and how it authenticates.
package config

import "os"

const defaultAPIURL = "http://localhost:8080"

// APIURL returns the base URL for the Employee Records API.
// It can be overridden with the EMPRECORD_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("EMPRECORD_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// Token returns the bearer token for authenticated calls, if any.
// Set via the EMPRECORD_TOKEN environment variable; empty means anonymous.
func Token() string {
	return os.Getenv("EMPRECORD_TOKEN")
}
