package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "S3MV"

// AppConfig is the configuration shared by every command. Values come from
// flags, then S3MV_* environment variables, then the config file.
type AppConfig struct {
	Region                string  `mapstructure:"region"`
	EndpointURL           string  `mapstructure:"endpoint_url"`
	Profile               string  `mapstructure:"profile"`
	NoVerifySSL           bool    `mapstructure:"no_verify_ssl"`
	ForcePathStyle        bool    `mapstructure:"force_path_style"`
	MaxRetries            int     `mapstructure:"max_retries"`
	MaxConcurrentRequests int     `mapstructure:"max_concurrent_requests"`
	MaxRequestsPerSecond  float64 `mapstructure:"max_requests_per_second"`
	MultipartThreshold    string  `mapstructure:"multipart_threshold"`
	MultipartChunksize    string  `mapstructure:"multipart_chunksize"`
	LogLevel              string  `mapstructure:"log_level"`
	LogFile               string  `mapstructure:"log_file"`
	LogMaxSizeMB          int     `mapstructure:"log_max_size_mb"`
	LogMaxBackups         int     `mapstructure:"log_max_backups"`
}

// flagKeys maps global flags onto config keys.
var flagKeys = map[string]string{
	"region":        "region",
	"endpoint-url":  "endpoint_url",
	"profile":       "profile",
	"no-verify-ssl": "no_verify_ssl",
	"log-file":      "log_file",
}

// LoadAppConfig reads the config at configPath, or config.toml from ~/.s3mv
// or the working directory when configPath is empty. A missing default file
// is not an error. Flags in flags that were set take precedence.
func LoadAppConfig(configPath string, flags *pflag.FlagSet) (*AppConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	v, err := initViper(expandPath(configPath), filepath.Join(home, ".s3mv"), "config", "toml", envPrefix)
	if err != nil {
		return nil, err
	}

	v.SetDefault("region", "")
	v.SetDefault("endpoint_url", "")
	v.SetDefault("profile", "")
	v.SetDefault("no_verify_ssl", false)
	v.SetDefault("force_path_style", false)
	v.SetDefault("max_retries", 3)
	v.SetDefault("max_concurrent_requests", 10)
	v.SetDefault("max_requests_per_second", 0)
	v.SetDefault("multipart_threshold", "8MB")
	v.SetDefault("multipart_chunksize", "8MB")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_max_backups", 3)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg AppConfig
	if err := readInto(v, &cfg); err != nil {
		return nil, err
	}

	cfg.LogFile = expandPath(cfg.LogFile)

	return &cfg, nil
}

// Sizes returns the multipart threshold and chunk size in bytes.
func (cfg *AppConfig) Sizes() (threshold, chunksize int64, err error) {
	if threshold, err = ParseSize(cfg.MultipartThreshold); err != nil {
		return 0, 0, fmt.Errorf("multipart_threshold: %w", err)
	}
	if chunksize, err = ParseSize(cfg.MultipartChunksize); err != nil {
		return 0, 0, fmt.Errorf("multipart_chunksize: %w", err)
	}
	return threshold, chunksize, nil
}

// ParseSize parses sizes such as "8MB", "8MiB", "512k" or "1024". Units are
// binary.
func ParseSize(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	size, err := units.RAMInBytes(value)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	if size < 0 {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	return size, nil
}

func initViper(configPath, defaultDir, defaultName, defaultType, envPrefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(defaultType)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultDir)
		v.AddConfigPath(".")
		v.SetConfigName(defaultName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func readInto(v *viper.Viper, out any) error {
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
