package storage_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/JaimeStill/rapport/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{ConnectionString: "test-connection"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "merge-archives" {
		t.Errorf("container_name: got %s, want merge-archives", cfg.ContainerName)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_CONTAINER", "archives")
	t.Setenv("TEST_CONN", "override-connection")

	env := &storage.Env{
		ContainerName:    "TEST_CONTAINER",
		ConnectionString: "TEST_CONN",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "archives" {
		t.Errorf("container_name: got %s, want archives", cfg.ContainerName)
	}
	if cfg.ConnectionString != "override-connection" {
		t.Errorf("connection_string: got %s, want override-connection", cfg.ConnectionString)
	}
}

func TestFinalizeMissingConnectionString(t *testing.T) {
	cfg := storage.Config{ContainerName: "archives"}
	err := cfg.Finalize(nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "connection_string required") {
		t.Errorf("error %q does not mention connection_string", err.Error())
	}
}

func TestFinalizeContainerName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr string
	}{
		{"merge-archives", ""},
		{"abc", ""},
		{"ab", "3-63 characters"},
		{strings.Repeat("a", 64), "3-63 characters"},
		{"Merge-Archives", "lowercase"},
		{"merge--archives", "single hyphens"},
		{"-archives", "lowercase"},
		{"archives-", "lowercase"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := storage.Config{ContainerName: tt.name, ConnectionString: "conn"}
			err := cfg.Finalize(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %v does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{ContainerName: "base", ConnectionString: "base-conn"}
	base.Merge(&storage.Config{ConnectionString: "overlay-conn"})

	if base.ContainerName != "base" {
		t.Errorf("container_name: got %s, want base", base.ContainerName)
	}
	if base.ConnectionString != "overlay-conn" {
		t.Errorf("connection_string: got %s, want overlay-conn", base.ConnectionString)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want error
	}{
		{"valid", "merges/ws/person.json", nil},
		{"empty", "", storage.ErrEmptyKey},
		{"traversal", "merges/../secret", storage.ErrInvalidKey},
		{"trailing traversal", "merges/..", storage.ErrInvalidKey},
		{"absolute", "/merges/ws/person.json", storage.ErrInvalidKey},
		{"dots in name", "merges/ws/a..b.json", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.ValidateKey(tt.key); !errors.Is(got, tt.want) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
