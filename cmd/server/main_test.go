package main

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
	"github.com/vyrodovalexey/gildedrose/internal/config"
	"github.com/vyrodovalexey/gildedrose/internal/model"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"invalid level defaults to info", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			logger, err := initLogger(tt.level)

			// Assert
			if err != nil {
				t.Fatalf("initLogger() error = %v", err)
			}
			if logger == nil {
				t.Error("initLogger() returned nil logger")
			}
		})
	}
}

func TestCreateAuthenticator(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.Config
		wantNil    bool
		wantMethod auth.Method
		wantErr    bool
	}{
		{name: "none", cfg: config.Config{AuthMode: "none"}, wantNil: true},
		{name: "empty mode", cfg: config.Config{AuthMode: ""}, wantNil: true},
		{
			name:       "basic",
			cfg:        config.Config{AuthMode: "basic", BasicAuthUsers: "admin:$2a$10$abcdefghijklmnopqrstuv"},
			wantMethod: auth.MethodBasic,
		},
		{
			name:       "apikey",
			cfg:        config.Config{AuthMode: "apikey", APIKeys: "secret:clerk"},
			wantMethod: auth.MethodAPIKey,
		},
		{
			name:       "multi",
			cfg:        config.Config{AuthMode: "multi", APIKeys: "secret:clerk"},
			wantMethod: auth.MethodMulti,
		},
		{name: "basic with bad config", cfg: config.Config{AuthMode: "basic", BasicAuthUsers: "nocolon"}, wantErr: true},
		{name: "unknown mode", cfg: config.Config{AuthMode: "oidc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			authenticator, err := createAuthenticator(&tt.cfg, zap.NewNop())

			// Assert
			if tt.wantErr {
				if err == nil {
					t.Error("createAuthenticator() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("createAuthenticator() error = %v", err)
			}
			if tt.wantNil {
				if authenticator != nil {
					t.Errorf("createAuthenticator() = %v, want nil", authenticator)
				}
				return
			}
			if authenticator == nil {
				t.Fatal("createAuthenticator() returned nil")
			}
			if authenticator.Method() != tt.wantMethod {
				t.Errorf("Method() = %s, want %s", authenticator.Method(), tt.wantMethod)
			}
		})
	}
}

func TestCreateMultiAuthenticator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{name: "basic only", cfg: config.Config{BasicAuthUsers: "admin:$2a$10$hash"}},
		{name: "api key only", cfg: config.Config{APIKeys: "secret:clerk"}},
		{name: "both", cfg: config.Config{BasicAuthUsers: "admin:$2a$10$hash", APIKeys: "secret:clerk"}},
		{name: "nothing configured", cfg: config.Config{}, wantErr: true},
		{name: "invalid basic", cfg: config.Config{BasicAuthUsers: "broken"}, wantErr: true},
		{name: "invalid api key", cfg: config.Config{APIKeys: "broken"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			authenticator, err := createMultiAuthenticator(&tt.cfg, zap.NewNop())

			// Assert
			if tt.wantErr {
				if err == nil {
					t.Error("createMultiAuthenticator() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("createMultiAuthenticator() error = %v", err)
			}
			if authenticator.Method() != auth.MethodMulti {
				t.Errorf("Method() = %s, want %s", authenticator.Method(), auth.MethodMulti)
			}
		})
	}
}

func TestLoadStock_Default(t *testing.T) {
	// Act
	items, err := loadStock(&config.Config{}, zap.NewNop())

	// Assert
	if err != nil {
		t.Fatalf("loadStock() error = %v", err)
	}
	if len(items) != 9 {
		t.Errorf("items = %d, want 9", len(items))
	}
}

func TestLoadStock_SeedFile(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "stock.yaml")
	data := []byte("items:\n  - name: Aged Brie\n    sell_in: 2\n    quality: 0\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Act
	items, err := loadStock(&config.Config{SeedFile: path}, zap.NewNop())

	// Assert
	if err != nil {
		t.Fatalf("loadStock() error = %v", err)
	}
	if len(items) != 1 || items[0].Category != model.CategoryAgedBrie {
		t.Errorf("items = %+v, want one aged brie", items)
	}
}

func TestLoadStock_MissingFile(t *testing.T) {
	_, err := loadStock(&config.Config{SeedFile: filepath.Join(t.TempDir(), "absent.yaml")}, zap.NewNop())

	if err == nil {
		t.Error("loadStock() expected error for missing file")
	}
}
