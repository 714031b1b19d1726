package args

import (
	"testing"

	"github.com/markis/gh-stream/internal/config"
)

func baseConfig() config.Config {
	return config.Config{
		Delimiter: `\r\n`,
		Format:    "auto",
		Profiles: map[string]config.Profile{
			"events": {
				URL:         "https://example.com/events",
				Delimiter:   `\n\n`,
				Type:        "application/json",
				SSE:         true,
				Description: "live event feed",
			},
		},
	}
}

func TestParseArgsDirectSource(t *testing.T) {
	got, err := ParseArgs(baseConfig(), []string{"https://example.com/stream"})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if got.Source != "https://example.com/stream" {
		t.Errorf("Source = %q", got.Source)
	}
	if got.Delimiter != "\r\n" {
		t.Errorf("Delimiter = %q, want CRLF", got.Delimiter)
	}
	if got.SSE || got.Raw || got.Profile != "" {
		t.Errorf("unexpected defaults: %+v", got)
	}
}

func TestParseArgsDelimiterFlag(t *testing.T) {
	got, err := ParseArgs(baseConfig(), []string{"--delimiter", `\x00`, "-"})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if got.Source != "-" {
		t.Errorf("Source = %q, want stdin marker", got.Source)
	}
	if got.Delimiter != "\x00" {
		t.Errorf("Delimiter = %q, want NUL byte", got.Delimiter)
	}
}

func TestParseArgsProfile(t *testing.T) {
	got, err := ParseArgs(baseConfig(), []string{"events"})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if got.Profile != "events" {
		t.Errorf("Profile = %q", got.Profile)
	}
	if got.Source != "https://example.com/events" {
		t.Errorf("Source = %q", got.Source)
	}
	if got.Delimiter != "\n\n" {
		t.Errorf("Delimiter = %q, want double newline from profile", got.Delimiter)
	}
	if got.MediaType != "application/json" || !got.SSE {
		t.Errorf("profile settings not applied: %+v", got)
	}
}

func TestParseArgsProfileFlagOverride(t *testing.T) {
	got, err := ParseArgs(baseConfig(), []string{"events", "--delimiter", "|", "--type", "application/yaml"})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if got.Delimiter != "|" {
		t.Errorf("Delimiter = %q, flag must beat profile", got.Delimiter)
	}
	if got.MediaType != "application/yaml" {
		t.Errorf("MediaType = %q, flag must beat profile", got.MediaType)
	}
}

func TestParseArgsNoSource(t *testing.T) {
	if _, err := ParseArgs(baseConfig(), nil); err == nil {
		t.Fatal("expected error when no source is given")
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`\r\n`, "\r\n", false},
		{`\n\n`, "\n\n", false},
		{`|`, "|", false},
		{`\x1e`, "\x1e", false},
		{`--`, "--", false},
		{`\q`, "", true},
	}
	for _, tt := range tests {
		got, err := Unescape(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Unescape(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Unescape(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}
