package azure

import (
	"context"
	"errors"
	"testing"

	activestorage "github.com/kaplanelad/active-storage"
)

func TestConfigFromMap(t *testing.T) {
	config := ConfigFromMap(map[string]string{
		"account":    "myaccount",
		"container":  "mycontainer",
		"access_key": "c2VjcmV0",
		"endpoint":   "http://127.0.0.1:10000/devstoreaccount1",
	})

	if config.Account != "myaccount" {
		t.Errorf("Account = %q, want %q", config.Account, "myaccount")
	}
	if config.Container != "mycontainer" {
		t.Errorf("Container = %q, want %q", config.Container, "mycontainer")
	}
	if config.AccessKey != "c2VjcmV0" {
		t.Errorf("AccessKey = %q, want %q", config.AccessKey, "c2VjcmV0")
	}
	if config.Endpoint != "http://127.0.0.1:10000/devstoreaccount1" {
		t.Errorf("Endpoint = %q, want %q", config.Endpoint, "http://127.0.0.1:10000/devstoreaccount1")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{"missing account", Config{}, ErrAccountRequired},
		{"missing container", Config{Account: "a"}, ErrContainerRequired},
		{"missing access key", Config{Account: "a", Container: "c"}, ErrAccessKeyRequired},
		{"complete", Config{Account: "a", Container: "c", AccessKey: "k"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && !activestorage.IsConfiguration(err) {
				t.Errorf("Validate error %v does not wrap ErrConfiguration", err)
			}
		})
	}
}

func TestInvalidPaths(t *testing.T) {
	d := &Driver{container: "my-container"}
	ctx := context.Background()

	for _, p := range []string{"", "..", "../escape.txt"} {
		if err := d.Write(ctx, p, []byte("x")); !errors.Is(err, activestorage.ErrInvalidPath) {
			t.Errorf("Write(%q) error = %v, want ErrInvalidPath", p, err)
		}
		if _, err := d.Read(ctx, p); !errors.Is(err, activestorage.ErrInvalidPath) {
			t.Errorf("Read(%q) error = %v, want ErrInvalidPath", p, err)
		}
		if err := d.Delete(ctx, p); !errors.Is(err, activestorage.ErrInvalidPath) {
			t.Errorf("Delete(%q) error = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestServiceURL(t *testing.T) {
	config := Config{Account: "myaccount"}
	if got := config.serviceURL(); got != "https://myaccount.blob.core.windows.net/" {
		t.Errorf("serviceURL = %q, want %q", got, "https://myaccount.blob.core.windows.net/")
	}

	config.Endpoint = "http://127.0.0.1:10000/devstoreaccount1"
	if got := config.serviceURL(); got != config.Endpoint {
		t.Errorf("serviceURL = %q, want %q", got, config.Endpoint)
	}
}
