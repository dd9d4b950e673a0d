package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/teamboard/internal/auth"
	"github.com/mesh-intelligence/teamboard/internal/paths"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "TEAMBOARD"

	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeyDSN            = "dsn"
	cfgKeyHTTPAddr       = "http.addr"
	cfgKeyJWTSecret      = "auth.jwt_secret"
	cfgKeyTokenTTL       = "auth.token_ttl"
	cfgKeyOperators      = "auth.operators"
	cfgKeyLogMode        = "log.mode"
	cfgKeyTelemetry      = "telemetry.enabled"
	cfgKeyTelemetryRatio = "telemetry.sample_ratio"

	defaultHTTPAddr = ":8080"
	defaultLogMode  = "development"
)

// envKeys may be overridden by TEAMBOARD_* variables. data_dir is left
// out: its precedence is decided by paths.ResolveDataDir.
var envKeys = []string{
	cfgKeyBackend, cfgKeyDSN, cfgKeyHTTPAddr, cfgKeyJWTSecret, cfgKeyTokenTTL,
	cfgKeyLogMode, cfgKeyTelemetry, cfgKeyTelemetryRatio,
}

// configFile is the shape of config.yaml.
type configFile struct {
	Backend   string           `yaml:"backend"`
	DataDir   string           `yaml:"data_dir,omitempty"`
	DSN       string           `yaml:"dsn,omitempty"`
	HTTP      httpSection      `yaml:"http"`
	Auth      authSection      `yaml:"auth"`
	Log       logSection       `yaml:"log"`
	Telemetry telemetrySection `yaml:"telemetry"`
}

type httpSection struct {
	Addr string `yaml:"addr"`
}

type authSection struct {
	JWTSecret string   `yaml:"jwt_secret"`
	TokenTTL  string   `yaml:"token_ttl"`
	Operators []string `yaml:"operators,omitempty"`
}

type logSection struct {
	Mode string `yaml:"mode"`
}

type telemetrySection struct {
	Enabled     bool    `yaml:"enabled"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// settings is the resolved configuration used by commands.
type settings struct {
	Store          types.Config
	HTTPAddr       string
	JWTSecret      string
	TokenTTL       time.Duration
	Operators      []string
	LogMode        string
	Telemetry      bool
	TelemetryRatio float64
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file with a fresh JWT secret on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyHTTPAddr, defaultHTTPAddr)
	v.SetDefault(cfgKeyTokenTTL, auth.DefaultTokenTTL.String())
	v.SetDefault(cfgKeyLogMode, defaultLogMode)
	v.SetDefault(cfgKeyTelemetryRatio, 1.0)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	for _, key := range envKeys {
		if err := v.BindEnv(key, envName(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// envName turns a config key into its TEAMBOARD_* variable name.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// settingsFrom validates v and resolves it into settings.
func settingsFrom(v *viper.Viper) (settings, error) {
	ttl, err := time.ParseDuration(v.GetString(cfgKeyTokenTTL))
	if err != nil {
		return settings{}, fmt.Errorf("%s: %w", cfgKeyTokenTTL, err)
	}
	s := settings{
		Store: types.Config{
			Backend: v.GetString(cfgKeyBackend),
			DataDir: v.GetString(cfgKeyDataDir),
			DSN:     v.GetString(cfgKeyDSN),
		},
		HTTPAddr:       v.GetString(cfgKeyHTTPAddr),
		JWTSecret:      v.GetString(cfgKeyJWTSecret),
		TokenTTL:       ttl,
		Operators:      v.GetStringSlice(cfgKeyOperators),
		LogMode:        v.GetString(cfgKeyLogMode),
		Telemetry:      v.GetBool(cfgKeyTelemetry),
		TelemetryRatio: v.GetFloat64(cfgKeyTelemetryRatio),
	}
	if err := s.Store.Validate(); err != nil {
		return settings{}, fmt.Errorf("config: %w", err)
	}
	return s, nil
}

// ensureDefaultConfigFile writes a default config.yaml if none exists.
func ensureDefaultConfigFile(configDir string) error {
	path := paths.ConfigFile(configDir)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}
	secret, err := newSecret()
	if err != nil {
		return err
	}
	return writeConfigFile(path, defaultConfigFile(secret))
}

func defaultConfigFile(secret string) configFile {
	return configFile{
		Backend:   types.BackendSQLite,
		HTTP:      httpSection{Addr: defaultHTTPAddr},
		Auth:      authSection{JWTSecret: secret, TokenTTL: auth.DefaultTokenTTL.String()},
		Log:       logSection{Mode: defaultLogMode},
		Telemetry: telemetrySection{SampleRatio: 1},
	}
}

func writeConfigFile(path string, c configFile) error {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
