package gcs

import (
	"context"
	"errors"
	"testing"

	activestorage "github.com/kaplanelad/active-storage"
)

func TestConfigFromMap(t *testing.T) {
	config := ConfigFromMap(map[string]string{
		"bucket":           "my-bucket",
		"project_id":       "my-project",
		"credentials_file": "/etc/gcs/key.json",
		"anonymous":        "true",
		"endpoint":         "http://localhost:4443/storage/v1/",
	})

	if config.Bucket != "my-bucket" {
		t.Errorf("Bucket = %q, want %q", config.Bucket, "my-bucket")
	}
	if config.ProjectID != "my-project" {
		t.Errorf("ProjectID = %q, want %q", config.ProjectID, "my-project")
	}
	if config.CredentialsFile != "/etc/gcs/key.json" {
		t.Errorf("CredentialsFile = %q, want %q", config.CredentialsFile, "/etc/gcs/key.json")
	}
	if !config.Anonymous {
		t.Error("Anonymous = false, want true")
	}
	if config.Endpoint != "http://localhost:4443/storage/v1/" {
		t.Errorf("Endpoint = %q, want %q", config.Endpoint, "http://localhost:4443/storage/v1/")
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{}).Validate(); !errors.Is(err, ErrBucketRequired) {
		t.Errorf("Validate error = %v, want ErrBucketRequired", err)
	}
	if err := (Config{Bucket: "my-bucket"}).Validate(); err != nil {
		t.Errorf("Validate error = %v, want nil", err)
	}

	// Validation failures are configuration errors.
	if !activestorage.IsConfiguration(ErrBucketRequired) {
		t.Error("ErrBucketRequired does not wrap ErrConfiguration")
	}
}

func TestNewMissingBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if !errors.Is(err, ErrBucketRequired) {
		t.Errorf("New error = %v, want ErrBucketRequired", err)
	}
}

func TestInvalidPaths(t *testing.T) {
	d := &Driver{bucket: "my-bucket"}
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
