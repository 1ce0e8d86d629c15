package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

const validTarget = `url: "https://sfbay.craigslist.org/search/zip?s="
terms:
  - couch
  - " Bike "
start_date: 2024-01-01
api_key: key
api_secret: secret
oauth_token: token
oauth_secret: token-secret
board_name: Free Stuff
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadTarget(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", validTarget)

	got, err := LoadTarget(path)
	if err != nil {
		t.Fatalf("LoadTarget: %v", err)
	}

	if got.URL != "https://sfbay.craigslist.org/search/zip?s=" {
		t.Errorf("url = %q", got.URL)
	}
	if want := []string{"couch", "bike"}; strings.Join(got.Terms, ",") != strings.Join(want, ",") {
		t.Errorf("terms = %v, want %v", got.Terms, want)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !got.StartDate.Equal(want) {
		t.Errorf("start_date = %v, want %v", got.StartDate, want)
	}
	if got.BoardName != "Free Stuff" {
		t.Errorf("board_name = %q", got.BoardName)
	}
	if got.UnreviewedList != DefaultUnreviewedList || got.ReviewedList != DefaultReviewedList {
		t.Errorf("list defaults = %q / %q", got.UnreviewedList, got.ReviewedList)
	}
	if got.Path != path {
		t.Errorf("path = %q, want %q", got.Path, path)
	}
}

func TestLoadTargetQuotedDateAndListOverrides(t *testing.T) {
	content := strings.Replace(validTarget, "start_date: 2024-01-01", `start_date: "2023-12-20"`, 1) +
		"unreviewed_list: Inbox\nreviewed_list: Done\n"
	path := writeFile(t, t.TempDir(), "config.yaml", content)

	got, err := LoadTarget(path)
	if err != nil {
		t.Fatalf("LoadTarget: %v", err)
	}
	if want := time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC); !got.StartDate.Equal(want) {
		t.Errorf("start_date = %v, want %v", got.StartDate, want)
	}
	if got.UnreviewedList != "Inbox" || got.ReviewedList != "Done" {
		t.Errorf("lists = %q / %q", got.UnreviewedList, got.ReviewedList)
	}
}

func TestLoadTargetCredentialsFromEnv(t *testing.T) {
	content := strings.Replace(validTarget, "api_key: key\n", "", 1)
	path := writeFile(t, t.TempDir(), "config.yaml", content)
	t.Setenv("ADBOARD_API_KEY", "from-env")

	got, err := LoadTarget(path)
	if err != nil {
		t.Fatalf("LoadTarget: %v", err)
	}
	if got.APIKey != "from-env" {
		t.Errorf("api_key = %q, want from-env", got.APIKey)
	}
}

func TestLoadTargetErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing board",
			content: strings.Replace(validTarget, "board_name: Free Stuff\n", "", 1),
			want:    "board_name",
		},
		{
			name:    "missing start date",
			content: strings.Replace(validTarget, "start_date: 2024-01-01\n", "", 1),
			want:    "start_date is required",
		},
		{
			name:    "bad start date",
			content: strings.Replace(validTarget, "start_date: 2024-01-01", `start_date: "last tuesday"`, 1),
			want:    "not an ISO date",
		},
		{
			name:    "empty term",
			content: strings.Replace(validTarget, `  - " Bike "`, `  - "  "`, 1),
			want:    "terms[1]",
		},
		{
			name:    "no terms",
			content: strings.Replace(validTarget, "terms:\n  - couch\n  - \" Bike \"\n", "terms: []\n", 1),
			want:    "terms",
		},
		{
			name:    "relative url",
			content: strings.Replace(validTarget, `"https://sfbay.craigslist.org/search/zip?s="`, `"search/zip?s="`, 1),
			want:    "url",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tc.content)
			_, err := LoadTarget(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *config.Error, got %T", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadTargetMissingFile(t *testing.T) {
	_, err := LoadTarget(filepath.Join(t.TempDir(), "nope.yaml"))
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *config.Error, got %v", err)
	}
}

func TestSettingsFileFollowsDataDir(t *testing.T) {
	other := t.TempDir()
	writeFile(t, other, "settings.yaml", "schedule: \"@every 1h\"\nrequest_interval: 5s\n")

	v := viper.New()
	v.Set("data_dir", other)
	s, err := load(v, filepath.Join(t.TempDir(), "default"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.DataDir != other {
		t.Errorf("data_dir = %q, want %q", s.DataDir, other)
	}
	if s.Schedule != "@every 1h" || s.RequestInterval != 5*time.Second {
		t.Errorf("settings file in data dir not read: schedule=%q interval=%v", s.Schedule, s.RequestInterval)
	}
}

func TestSettingsDefaultsAndPaths(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	s, err := load(viper.New(), dataDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if s.DataDir != dataDir {
		t.Errorf("data_dir = %q, want %q", s.DataDir, dataDir)
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
	if s.RequestInterval != time.Second {
		t.Errorf("request_interval = %v", s.RequestInterval)
	}
	if s.Schedule != "@every 6h" {
		t.Errorf("schedule = %q", s.Schedule)
	}

	s.ConfigDir = "/etc/adboard"
	s.ConfigFiles = []string{"config.yaml", "/abs/other.yaml"}
	paths := s.ConfigPaths()
	if paths[0] != filepath.Join("/etc/adboard", "config.yaml") || paths[1] != "/abs/other.yaml" {
		t.Errorf("ConfigPaths = %v", paths)
	}
	if s.DBPath() != filepath.Join(dataDir, "adboard.db") {
		t.Errorf("DBPath = %q", s.DBPath())
	}
}
