package sources

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	content := `
kind: "html"
base_url: "https://chessevents.example.com"

settings:
  enabled: true
  timeout: 15
  max_pages: 10
  page_size: 20

regions:
  - code: "us-ny"
    name: "New York"
    country: "US"
    state: "NY"
    tier: "top"
  - code: "us-vt"
    name: "Vermont"
    country: "US"
    state: "VT"
    tier: "other"
    target: 30
`

	err := os.WriteFile(filepath.Join(tempDir, "chessevents.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 config, got %d", configCache.GetConfigCount())
	}

	config, err := configCache.GetConfig("chessevents")
	if err != nil {
		t.Fatal(err)
	}

	if config.Name != "chessevents" {
		t.Errorf("Expected name 'chessevents', got '%s'", config.Name)
	}
	if config.Kind != KindHTML {
		t.Errorf("Expected kind 'html', got '%s'", config.Kind)
	}
	if len(config.Regions) != 2 {
		t.Fatalf("Expected 2 regions, got %d", len(config.Regions))
	}
	if config.Regions[0].Target != 100 {
		t.Errorf("Expected top tier default target 100, got %d", config.Regions[0].Target)
	}
	if config.Regions[1].Target != 30 {
		t.Errorf("Expected explicit target 30, got %d", config.Regions[1].Target)
	}
}

func TestConfigCacheTierDefaults(t *testing.T) {
	tempDir := t.TempDir()

	content := `
kind: "rss"
base_url: "https://calendar.example.org/feed"

settings:
  enabled: true

regions:
  - code: "de"
    name: "Germany"
    country: "DE"
`

	err := os.WriteFile(filepath.Join(tempDir, "calendar.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	config, err := configCache.GetConfig("calendar")
	if err != nil {
		t.Fatal(err)
	}

	if config.Regions[0].Tier != TierOther {
		t.Errorf("Expected default tier 'other', got '%s'", config.Regions[0].Tier)
	}
	if config.Regions[0].Target != 50 {
		t.Errorf("Expected other tier default target 50, got %d", config.Regions[0].Target)
	}
	if config.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", config.Settings.Timeout)
	}
}

func TestConfigCacheInvalidConfigs(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing base_url", "kind: html\nregions:\n  - code: us\n    country: US\n"},
		{"unknown kind", "kind: scrapyard\nbase_url: https://x.example.com\nregions:\n  - code: us\n    country: US\n"},
		{"no regions", "kind: html\nbase_url: https://x.example.com\n"},
		{"missing country", "kind: html\nbase_url: https://x.example.com\nregions:\n  - code: us\n"},
		{"duplicate region", "kind: html\nbase_url: https://x.example.com\nregions:\n  - code: us\n    country: US\n  - code: us\n    country: US\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tempDir := t.TempDir()
			if err := os.WriteFile(filepath.Join(tempDir, "bad.yml"), []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}

			configCache := NewConfigCache(tempDir)
			if err := configCache.Run(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestConfigCacheEnabledConfigs(t *testing.T) {
	tempDir := t.TempDir()

	enabled := "kind: html\nbase_url: https://a.example.com\nsettings:\n  enabled: true\nregions:\n  - code: us\n    country: US\n"
	disabled := "kind: html\nbase_url: https://b.example.com\nsettings:\n  enabled: false\nregions:\n  - code: ca\n    country: CA\n"

	if err := os.WriteFile(filepath.Join(tempDir, "a.yml"), []byte(enabled), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "b.yml"), []byte(disabled), 0644); err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if got := len(configCache.GetEnabledConfigs()); got != 1 {
		t.Errorf("Expected 1 enabled config, got %d", got)
	}
	if got := configCache.GetConfigCount(); got != 2 {
		t.Errorf("Expected 2 total configs, got %d", got)
	}
}
