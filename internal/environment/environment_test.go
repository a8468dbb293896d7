package environment

import (
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTemplateValues(t *testing.T) {
	env := Template()

	if env.Production {
		t.Fatalf("expected template to be non-production")
	}
	if env.Auth0.Audience != "ffsnd" {
		t.Fatalf("expected audience ffsnd, got %q", env.Auth0.Audience)
	}
	if env.APIServerURL != "http://127.0.0.1:5000" {
		t.Fatalf("unexpected api server url %q", env.APIServerURL)
	}
	if env.Auth0.ClientID != "V2cmp8AICx4yXN3pfTNnT3prnjhWWx89&" {
		t.Fatalf("unexpected client id %q", env.Auth0.ClientID)
	}
}

func TestTemplateURLsAreAbsolute(t *testing.T) {
	env := Template()
	for name, raw := range map[string]string{
		"apiServerUrl":      env.APIServerURL,
		"auth0.url":         env.Auth0.URL,
		"auth0.callbackURL": env.Auth0.CallbackURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("%s: parse %q: %v", name, raw, err)
		}
		if !u.IsAbs() || u.Host == "" {
			t.Fatalf("%s: expected absolute URL, got %q", name, raw)
		}
	}
	if err := env.Validate(); err != nil {
		t.Fatalf("template should validate: %v", err)
	}
}

func TestTemplateRepeatedReadsAreEqual(t *testing.T) {
	first := Template()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if diff := cmp.Diff(first, Template()); diff != "" {
				t.Errorf("template changed between reads (-first +got):\n%s", diff)
			}
		}()
	}
	wg.Wait()

	copied := first
	copied.Auth0.Audience = "other"
	if copied == first {
		t.Fatalf("expected copy to diverge after mutation")
	}
	if diff := cmp.Diff(Template(), first); diff != "" {
		t.Fatalf("mutating a copy leaked into the original:\n%s", diff)
	}
}

func TestJSONShape(t *testing.T) {
	data, err := json.Marshal(Template())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff([]string{"apiServerUrl", "auth0", "production"}, sortedKeys(doc)); diff != "" {
		t.Fatalf("unexpected top-level keys:\n%s", diff)
	}
	if _, ok := doc["production"].(bool); !ok {
		t.Fatalf("production must be a JSON boolean, got %T", doc["production"])
	}

	auth, ok := doc["auth0"].(map[string]any)
	if !ok {
		t.Fatalf("auth0 must be an object, got %T", doc["auth0"])
	}
	if diff := cmp.Diff([]string{"audience", "callbackURL", "clientId", "url"}, sortedKeys(auth)); diff != "" {
		t.Fatalf("unexpected auth0 keys:\n%s", diff)
	}
	for key, value := range auth {
		if _, ok := value.(string); !ok {
			t.Fatalf("auth0.%s must be a string, got %T", key, value)
		}
	}
}

func TestValidateRejectsRelativeURLs(t *testing.T) {
	testCases := map[string]func(*Environment){
		"apiServerUrl":      func(e *Environment) { e.APIServerURL = "/api" },
		"auth0.url":         func(e *Environment) { e.Auth0.URL = "dev-4ezltnbcex7uvmp5.us.auth0.com" },
		"auth0.callbackURL": func(e *Environment) { e.Auth0.CallbackURL = "" },
	}

	for field, mutate := range testCases {
		t.Run(field, func(t *testing.T) {
			env := Template()
			mutate(&env)

			err := env.Validate()
			if !errors.Is(err, ErrInvalidURL) {
				t.Fatalf("expected ErrInvalidURL, got %v", err)
			}
		})
	}
}

func TestValidateIgnoresOpaqueFields(t *testing.T) {
	env := Template()
	env.Auth0.Audience = ""
	env.Auth0.ClientID = "%%not a url%%"

	if err := env.Validate(); err != nil {
		t.Fatalf("opaque fields must not be validated: %v", err)
	}
}

func TestDomain(t *testing.T) {
	if got := Template().Auth0.Domain(); got != "dev-4ezltnbcex7uvmp5.us.auth0.com" {
		t.Fatalf("unexpected domain %q", got)
	}
	if got := (Auth0{URL: "://bad"}).Domain(); got != "" {
		t.Fatalf("expected empty domain for malformed url, got %q", got)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
