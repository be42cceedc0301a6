// Package integration provides integration tests for the hello-app status server.
// They start the real application on a loopback port and exercise it over HTTP.
package integration
