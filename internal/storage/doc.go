// Package storage holds the environment snapshot published by the service.
package storage
