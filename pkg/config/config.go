package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the tool settings that are not per-invocation.
type Config struct {
	Namespace         string         `mapstructure:"namespace"`
	LegacyImagePrefix string         `mapstructure:"legacy_image_prefix"`
	MetadataFile      string         `mapstructure:"metadata_file"`
	QuestionsDir      string         `mapstructure:"questions_dir"`
	JSON              JSONConfig     `mapstructure:"json"`
	Log               LogConfig      `mapstructure:"log"`
	Discover          DiscoverConfig `mapstructure:"discover"`
}

// JSONConfig controls how metadata files are written back.
type JSONConfig struct {
	Indent string `mapstructure:"indent"`
}

// LogConfig controls the optional report log file.
type LogConfig struct {
	DefaultFile string `mapstructure:"default_file"`
	Extension   string `mapstructure:"extension"`
}

// DiscoverConfig controls which metadata files are considered.
type DiscoverConfig struct {
	Exclude       []string `mapstructure:"exclude"`
	RespectIgnore bool     `mapstructure:"respect_ignore"`
}

var defaultConfig = Config{
	Namespace:         "ubcmds/",
	LegacyImagePrefix: "prairielearn/grader-",
	MetadataFile:      "info.json",
	QuestionsDir:      "questions",
	JSON: JSONConfig{
		Indent: "    ",
	},
	Log: LogConfig{
		DefaultFile: "output_log.txt",
		Extension:   ".txt",
	},
	Discover: DiscoverConfig{
		Exclude:       []string{},
		RespectIgnore: false,
	},
}

// Default returns a copy of the built-in settings.
func Default() Config {
	c := defaultConfig
	c.Discover.Exclude = append([]string(nil), defaultConfig.Discover.Exclude...)
	return c
}

// New prepares a viper instance with defaults, config file search paths and
// PLIMAGE_* environment bindings. When configFile is non-empty only that file
// is read.
func New(configFile string) *viper.Viper {
	v := viper.New()

	v.SetDefault("namespace", defaultConfig.Namespace)
	v.SetDefault("legacy_image_prefix", defaultConfig.LegacyImagePrefix)
	v.SetDefault("metadata_file", defaultConfig.MetadataFile)
	v.SetDefault("questions_dir", defaultConfig.QuestionsDir)
	v.SetDefault("json.indent", defaultConfig.JSON.Indent)
	v.SetDefault("log.default_file", defaultConfig.Log.DefaultFile)
	v.SetDefault("log.extension", defaultConfig.Log.Extension)
	v.SetDefault("discover.exclude", defaultConfig.Discover.Exclude)
	v.SetDefault("discover.respect_ignore", defaultConfig.Discover.RespectIgnore)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("plimage")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := GetPlimageHome(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("PLIMAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file (if any) into v and decodes the settings.
// A missing config file is not an error unless it was named explicitly.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfig loads settings from the default search paths and environment.
func LoadConfig() (*Config, error) {
	return Load(New(""))
}

// Validate rejects settings the updater cannot work with.
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return errors.New("config: namespace must not be empty")
	}
	if c.MetadataFile == "" || strings.ContainsAny(c.MetadataFile, `/\`) {
		return fmt.Errorf("config: metadata_file must be a bare file name, got %q", c.MetadataFile)
	}
	if c.QuestionsDir == "" {
		return errors.New("config: questions_dir must not be empty")
	}
	if strings.Trim(c.JSON.Indent, " \t") != "" {
		return fmt.Errorf("config: json.indent must contain only spaces or tabs, got %q", c.JSON.Indent)
	}
	if !strings.HasPrefix(c.Log.Extension, ".") {
		return fmt.Errorf("config: log.extension must start with '.', got %q", c.Log.Extension)
	}
	if !strings.HasSuffix(c.Log.DefaultFile, c.Log.Extension) {
		return fmt.Errorf("config: log.default_file %q must end with %q", c.Log.DefaultFile, c.Log.Extension)
	}
	return nil
}

// GetPlimageHome returns the plimage home directory ($PLIMAGE_HOME or ~/.plimage).
func GetPlimageHome() (string, error) {
	if home := os.Getenv("PLIMAGE_HOME"); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	return filepath.Join(homeDir, ".plimage"), nil
}
