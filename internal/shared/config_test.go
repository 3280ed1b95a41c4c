package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Chart.MinComplete != 80 {
			t.Errorf("expected min_complete 80, got %d", config.Chart.MinComplete)
		}

		if config.Chart.MaxAttempts != 14 {
			t.Errorf("expected max_attempts 14, got %d", config.Chart.MaxAttempts)
		}

		if config.Chart.LegacyThreshold != 50 {
			t.Errorf("expected legacy_threshold 50, got %d", config.Chart.LegacyThreshold)
		}

		if config.Report.Path != "not_found_songs.txt" {
			t.Errorf("expected report path not_found_songs.txt, got %s", config.Report.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Credentials.Spotify.HasClient() {
			t.Error("template credentials should not count as a configured client")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Chart.BaseURL != DefaultConfig().Chart.BaseURL {
			t.Errorf("created config base url doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[chart]
base_url = "http://localhost:9090/charts"
min_complete = 90
publication_day = "fri"

[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:8080/callback"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Chart.MinComplete != 90 {
			t.Errorf("expected min_complete 90, got %d", config.Chart.MinComplete)
		}

		if config.Chart.MaxAttempts != 14 {
			t.Errorf("missing keys should keep defaults, got max_attempts %d", config.Chart.MaxAttempts)
		}

		if day, err := config.Chart.Weekday(); err != nil || day != time.Friday {
			t.Errorf("expected Friday, got %v (%v)", day, err)
		}

		if !config.Credentials.Spotify.HasClient() {
			t.Error("expected client credentials to be present")
		}
	})

	t.Run("LoadConfig invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[chart\nbroken"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		if err := config.Credentials.Spotify.Update(&oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		}); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}

		token := loaded.Credentials.Spotify.Token()
		if token == nil {
			t.Fatal("expected token to be loaded")
		}
		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", token)
		}
		if !token.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, token.Expiry)
		}
	})
}

func TestSpotifyConfig(t *testing.T) {
	t.Run("Update keeps refresh token when omitted", func(t *testing.T) {
		cfg := SpotifyConfig{RefreshToken: "old_refresh"}
		if err := cfg.Update(&oauth2.Token{AccessToken: "new_access"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.RefreshToken != "old_refresh" {
			t.Errorf("expected refresh token to be kept, got %s", cfg.RefreshToken)
		}
	})

	t.Run("Update rejects empty token", func(t *testing.T) {
		cfg := SpotifyConfig{}
		if err := cfg.Update(nil); err == nil {
			t.Error("expected error for nil token")
		}
	})

	t.Run("Token nil without access token", func(t *testing.T) {
		if (SpotifyConfig{}).Token() != nil {
			t.Error("expected nil token")
		}
	})

	t.Run("Map", func(t *testing.T) {
		m := SpotifyConfig{ClientID: "id", ClientSecret: "secret", AccessToken: "tok", RateLimit: 2.5}.Map()
		if m["client_id"] != "id" || m["client_secret"] != "secret" || m["access_token"] != "tok" {
			t.Errorf("unexpected map %v", m)
		}
		if m["rate_limit"] != "2.5" {
			t.Errorf("expected rate_limit 2.5, got %q", m["rate_limit"])
		}
		if _, ok := m["refresh_token"]; ok {
			t.Error("empty refresh token should be omitted")
		}
	})
}

func TestChartConfigWeekday(t *testing.T) {
	tc := []struct {
		name    string
		day     string
		want    time.Weekday
		wantErr bool
	}{
		{name: "empty defaults to saturday", day: "", want: time.Saturday},
		{name: "full name", day: "Saturday", want: time.Saturday},
		{name: "short name", day: "tue", want: time.Tuesday},
		{name: "unknown", day: "someday", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChartConfig{PublicationDay: tt.day}.Weekday()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Weekday() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Weekday() = %v, want %v", got, tt.want)
			}
		})
	}
}
