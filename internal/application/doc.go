// Package application wires the environment snapshot, HTTP handlers, router
// and server together, keeping the main package focused on CLI parsing and
// orchestration.
package application
