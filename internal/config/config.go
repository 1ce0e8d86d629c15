package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings holds application-wide options. Per-board search targets live in
// their own files, see LoadTarget.
type Settings struct {
	DataDir         string        `mapstructure:"data_dir"`
	ConfigDir       string        `mapstructure:"config_dir"`
	ConfigFiles     []string      `mapstructure:"config_files"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	Schedule        string        `mapstructure:"schedule"`
	Journal         bool          `mapstructure:"journal"`
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func Load() (*Settings, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	// Credentials are often kept in a .env next to the target files
	_ = godotenv.Load()

	return load(viper.GetViper(), filepath.Join(homeDir, ".adboard"))
}

func load(v *viper.Viper, defaultDataDir string) (*Settings, error) {
	v.SetDefault("data_dir", defaultDataDir)
	v.SetDefault("config_dir", ".")
	v.SetDefault("config_files", []string{"config.yaml", "config2.yaml"})
	v.SetDefault("request_interval", time.Second)
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("schedule", "@every 6h")
	v.SetDefault("journal", true)

	// Environment variable overrides
	v.SetEnvPrefix("ADBOARD")
	v.AutomaticEnv()
	v.BindEnv("data_dir", "ADBOARD_DATA_DIR")
	v.BindEnv("config_dir", "ADBOARD_CONFIG_DIR")
	v.BindEnv("schedule", "ADBOARD_SCHEDULE")

	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	// An overridden data dir carries its own settings file
	if dir := v.GetString("data_dir"); dir != "" && dir != defaultDataDir {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(defaultDataDir)

	// Settings file is optional
	_ = v.ReadInConfig()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, err
	}

	if s.Journal {
		if err := os.MkdirAll(s.DataDir, 0755); err != nil {
			return nil, err
		}
	}

	return &s, nil
}

// ConfigPaths resolves the configured target files against ConfigDir.
func (s *Settings) ConfigPaths() []string {
	paths := make([]string, 0, len(s.ConfigFiles))
	for _, f := range s.ConfigFiles {
		if filepath.IsAbs(f) {
			paths = append(paths, f)
			continue
		}
		paths = append(paths, filepath.Join(s.ConfigDir, f))
	}
	return paths
}

func (s *Settings) DBPath() string {
	return filepath.Join(s.DataDir, "adboard.db")
}
