package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFromEnv(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*testing.T)
		wantError bool
		validate  func(*testing.T, *Config)
	}{
		{
			name:  "all defaults",
			setup: func(t *testing.T) {},
			validate: func(t *testing.T, c *Config) {
				if c.APIKey != DefaultAPIKey {
					t.Errorf("expected APIKey %q, got %q", DefaultAPIKey, c.APIKey)
				}
				if c.APIURL != "https://mobile.kptncook.com" {
					t.Errorf("expected APIURL %q, got %q", "https://mobile.kptncook.com", c.APIURL)
				}
				if c.Mealie.URL != "http://localhost:9000/api" {
					t.Errorf("expected Mealie.URL %q, got %q", "http://localhost:9000/api", c.Mealie.URL)
				}
				if c.Groups.Enabled {
					t.Error("expected grouping to be disabled by default")
				}
				if c.Mealie.HasAuth() {
					t.Error("expected no mealie auth by default")
				}
			},
		},
		{
			name: "custom environment values",
			setup: func(t *testing.T) {
				t.Setenv("KPTNCOOK_API_KEY", "testkey")
				t.Setenv("KPTNCOOK_ACCESS_TOKEN", "token123")
				t.Setenv("MEALIE_URL", "https://mealie.example.com/api")
				t.Setenv("MEALIE_USERNAME", "alice")
				t.Setenv("MEALIE_PASSWORD", "secret")
				t.Setenv("KPTNCOOK_GROUP_INGREDIENTS_BY_TYP", "true")
				t.Setenv("KPTNCOOK_INGREDIENT_GROUP_LABELS", "regular:Du brauchst,basic:Vorrat")
			},
			validate: func(t *testing.T, c *Config) {
				if c.APIKey != "testkey" {
					t.Errorf("expected APIKey %q, got %q", "testkey", c.APIKey)
				}
				if c.AccessToken != "token123" {
					t.Errorf("expected AccessToken %q, got %q", "token123", c.AccessToken)
				}
				if c.Mealie.URL != "https://mealie.example.com/api" {
					t.Errorf("expected Mealie.URL %q, got %q", "https://mealie.example.com/api", c.Mealie.URL)
				}
				if !c.Mealie.HasAuth() {
					t.Error("expected mealie auth with username/password")
				}
				if !c.Groups.Enabled {
					t.Error("expected grouping to be enabled")
				}
				if c.Groups.Labels != "regular:Du brauchst,basic:Vorrat" {
					t.Errorf("unexpected group labels %q", c.Groups.Labels)
				}
			},
		},
		{
			name: "api token alone is enough mealie auth",
			setup: func(t *testing.T) {
				t.Setenv("MEALIE_API_TOKEN", "mealie-token")
			},
			validate: func(t *testing.T, c *Config) {
				if !c.Mealie.HasAuth() {
					t.Error("expected mealie auth with api token")
				}
			},
		},
		{
			name: "invalid grouping flag",
			setup: func(t *testing.T) {
				t.Setenv("KPTNCOOK_GROUP_INGREDIENTS_BY_TYP", "maybe")
			},
			wantError: true,
		},
		{
			name: "invalid api url",
			setup: func(t *testing.T) {
				t.Setenv("KPTNCOOK_API_URL", "not-a-url")
			},
			wantError: true,
		},
		{
			name: "values from dotenv file",
			setup: func(t *testing.T) {
				home := os.Getenv("KPTNCOOK_HOME")
				content := "KPTNCOOK_API_KEY=dotenv-key\n"
				if err := os.WriteFile(filepath.Join(home, ".env"), []byte(content), 0o644); err != nil {
					t.Fatalf("failed to write .env: %v", err)
				}
			},
			validate: func(t *testing.T, c *Config) {
				if c.APIKey != "dotenv-key" {
					t.Errorf("expected APIKey %q, got %q", "dotenv-key", c.APIKey)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("KPTNCOOK_HOME", home)
			tt.setup(t)

			config, err := LoadConfig()

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, &config)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantError bool
		validate  func(*testing.T, *Config)
	}{
		{
			name: "complete config",
			yaml: `
api_key: filekey
api_url: https://mobile.kptncook.com
access_token: file-token
mealie:
  url: https://mealie.example.com/api
  api_token: mealie-token
groups:
  enabled: true
  labels: "regular:You need,basic:Pantry"
credentials:
  username_command: op read op://Personal/KptnCook/username
  password_command: op read op://Personal/KptnCook/password
`,
			validate: func(t *testing.T, c *Config) {
				if c.APIKey != "filekey" {
					t.Errorf("expected APIKey %q, got %q", "filekey", c.APIKey)
				}
				if c.AccessToken != "file-token" {
					t.Errorf("expected AccessToken %q, got %q", "file-token", c.AccessToken)
				}
				if !c.Mealie.HasAuth() {
					t.Error("expected mealie auth from file")
				}
				if !c.Groups.Enabled {
					t.Error("expected grouping enabled")
				}
				if c.Credentials.UsernameCommand == "" {
					t.Error("expected username command to be set")
				}
			},
		},
		{
			name: "minimal config with defaults",
			yaml: `
mealie:
  username: bob
  password: hunter2
`,
			validate: func(t *testing.T, c *Config) {
				if c.APIKey != DefaultAPIKey {
					t.Errorf("expected default APIKey, got %q", c.APIKey)
				}
				if c.APIURL != "https://mobile.kptncook.com" {
					t.Errorf("expected default APIURL, got %q", c.APIURL)
				}
				if c.Mealie.URL != "http://localhost:9000/api" {
					t.Errorf("expected default Mealie.URL, got %q", c.Mealie.URL)
				}
			},
		},
		{
			name:      "invalid yaml",
			yaml:      `{invalid yaml content`,
			wantError: true,
		},
		{
			name: "invalid mealie url",
			yaml: `
mealie:
  url: not-a-url
`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("KPTNCOOK_HOME", home)
			path := filepath.Join(home, configFileName)
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatalf("failed to write test config file: %v", err)
			}

			config, err := LoadConfig()

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, &config)
			}
		})
	}
}
