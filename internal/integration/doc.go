// Package integration runs the session client stack end to end against the
// reference authority.
package integration
