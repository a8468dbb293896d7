// Package environment defines the deployment record handed to the front-end:
// the production flag, the backend API base URL and the identity-provider
// settings. Values are plain data and are safe to share across goroutines.
package environment
