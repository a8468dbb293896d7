package environment

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrInvalidURL indicates a URL field is not a valid absolute URL.
var ErrInvalidURL = errors.New("must be an absolute URL")

// Template values; replace them per deployment.
const (
	defaultAPIServerURL = "http://127.0.0.1:5000"
	defaultAuth0URL     = "https://dev-4ezltnbcex7uvmp5.us.auth0.com"
	defaultAudience     = "ffsnd"
	defaultClientID     = "V2cmp8AICx4yXN3pfTNnT3prnjhWWx89&"
	defaultCallbackURL  = "https://localhost:8080/callback"
)

// Environment is the configuration record consumed by the front-end.
type Environment struct {
	Production   bool   `json:"production"`
	APIServerURL string `json:"apiServerUrl"`
	Auth0        Auth0  `json:"auth0"`
}

// Auth0 holds the identity-provider settings.
type Auth0 struct {
	URL         string `json:"url"`
	Audience    string `json:"audience"`
	ClientID    string `json:"clientId"`
	CallbackURL string `json:"callbackURL"`
}

// Template returns the deployment template.
func Template() Environment {
	return Environment{
		Production:   false,
		APIServerURL: defaultAPIServerURL,
		Auth0: Auth0{
			URL:         defaultAuth0URL,
			Audience:    defaultAudience,
			ClientID:    defaultClientID,
			CallbackURL: defaultCallbackURL,
		},
	}
}

// Validate reports the first URL field that is not an absolute URL.
// Audience and client id are opaque and never inspected.
func (e Environment) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"apiServerUrl", e.APIServerURL},
		{"auth0.url", e.Auth0.URL},
		{"auth0.callbackURL", e.Auth0.CallbackURL},
	}
	for _, f := range fields {
		if err := checkAbsoluteURL(f.value); err != nil {
			return fmt.Errorf("%s %w: %v", f.name, ErrInvalidURL, err)
		}
	}
	return nil
}

// Domain returns the host of the identity-provider URL, or "" if it does not parse.
func (a Auth0) Domain() string {
	u, err := url.Parse(a.URL)
	if err != nil {
		return ""
	}
	return u.Host
}

func checkAbsoluteURL(raw string) error {
	if raw == "" {
		return errors.New("empty value")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q has no scheme or host", raw)
	}
	return nil
}
