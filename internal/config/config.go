// Package config contains utilities for loading configs
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	configFileName = "kptncook.yaml"
	envFileName    = ".env"
	homeDirName    = ".kptncook"
)

// DefaultAPIKey is the published key of the KptnCook mobile app. Recipe
// image URLs are only fetchable with it appended as a query parameter.
const DefaultAPIKey = "6q7QNKy-oIgk-IMuWisJ-jfN7s6"

const (
	defaultAPIURL    = "https://mobile.kptncook.com"
	defaultMealieURL = "http://localhost:9000/api"
)

type Mealie struct {
	URL      string `yaml:"url" validate:"omitempty,url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	APIToken string `yaml:"api_token"`
}

// HasAuth reports whether enough credentials are configured to talk to
// Mealie, either a username/password pair or an API token.
func (m Mealie) HasAuth() bool {
	return m.APIToken != "" || (m.Username != "" && m.Password != "")
}

type Groups struct {
	Enabled bool   `yaml:"enabled"`
	Labels  string `yaml:"labels"`
}

type Credentials struct {
	UsernameCommand string `yaml:"username_command"`
	PasswordCommand string `yaml:"password_command"`
}

type Config struct {
	// Home holds the repository file and, by default, the config files.
	Home        string      `yaml:"home" validate:"required"`
	APIKey      string      `yaml:"api_key" validate:"required"`
	APIURL      string      `yaml:"api_url" validate:"url"`
	AccessToken string      `yaml:"access_token"`
	Mealie      Mealie      `yaml:"mealie"`
	Groups      Groups      `yaml:"groups"`
	Credentials Credentials `yaml:"credentials"`
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return homeDirName
	}
	return filepath.Join(home, homeDirName)
}

func loadWithDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadConfigFromEnv(home string) (Config, error) {
	// The original dotenv location is still honored so that an existing
	// ~/.kptncook/.env keeps working.
	_ = godotenv.Load(filepath.Join(home, envFileName))

	conf := Config{
		Home:        loadWithDefault("KPTNCOOK_HOME", home),
		APIKey:      loadWithDefault("KPTNCOOK_API_KEY", DefaultAPIKey),
		APIURL:      loadWithDefault("KPTNCOOK_API_URL", defaultAPIURL),
		AccessToken: loadWithDefault("KPTNCOOK_ACCESS_TOKEN", ""),
		Mealie: Mealie{
			URL:      loadWithDefault("MEALIE_URL", defaultMealieURL),
			Username: loadWithDefault("MEALIE_USERNAME", ""),
			Password: loadWithDefault("MEALIE_PASSWORD", ""),
			APIToken: loadWithDefault("MEALIE_API_TOKEN", ""),
		},
		Credentials: Credentials{
			UsernameCommand: loadWithDefault("KPTNCOOK_USERNAME_COMMAND", ""),
			PasswordCommand: loadWithDefault("KPTNCOOK_PASSWORD_COMMAND", ""),
		},
	}

	grouping := loadWithDefault("KPTNCOOK_GROUP_INGREDIENTS_BY_TYP", "false")
	enabled, err := strconv.ParseBool(grouping)
	if err != nil {
		return conf, fmt.Errorf("invalid KPTNCOOK_GROUP_INGREDIENTS_BY_TYP (%q): %w", grouping, err)
	}
	conf.Groups = Groups{
		Enabled: enabled,
		Labels:  loadWithDefault("KPTNCOOK_INGREDIENT_GROUP_LABELS", ""),
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(conf); err != nil {
		return conf, fmt.Errorf("validating config: %w", err)
	}
	return conf, nil
}

func loadConfigFromFile(path, home string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(contents, &config); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Set defaults
	if config.Home == "" {
		config.Home = home
	}
	if config.APIKey == "" {
		config.APIKey = DefaultAPIKey
	}
	if config.APIURL == "" {
		config.APIURL = defaultAPIURL
	}
	if config.Mealie.URL == "" {
		config.Mealie.URL = defaultMealieURL
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return config, nil
}

func configFileExists(path string) bool {
	f, err := os.Lstat(path)
	if err != nil {
		return false
	}

	return !f.IsDir()
}

// LoadConfig reads ~/.kptncook/kptncook.yaml when present and falls back to
// environment variables (with ~/.kptncook/.env loaded first) otherwise.
func LoadConfig() (Config, error) {
	home := loadWithDefault("KPTNCOOK_HOME", defaultHome())
	path := filepath.Join(home, configFileName)
	if configFileExists(path) {
		return loadConfigFromFile(path, home)
	}

	return loadConfigFromEnv(home)
}
