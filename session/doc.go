// Package session houses the in-memory core.SessionStore. Sessions live for
// the lifetime of the process and are discarded at exit.
package session
