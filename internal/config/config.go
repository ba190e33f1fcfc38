// Package config handles input from etc/main.toml and the JSON override environment variable.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvConfigJSON names the environment variable holding a JSON config override.
	EnvConfigJSON = "PREPDESK_CONFIG_JSON"

	// DefaultPath is used when no config directory was given.
	DefaultPath = "./etc/"

	configFileName = "main.toml"

	defaultShutDownTime      = 5
	defaultSessionExpiry     = 24 * time.Hour
	defaultWebhookTolerance  = 5 * time.Minute
	defaultProviderTimeout   = 10 * time.Second
	defaultProviderAPIURL    = "https://api.stripe.com"
	defaultAdminUsername     = "admin"
	invalidConfigErrorPrefix = "invalid config"
)

// ReadConfig reads main.toml from the directory path and applies the JSON override.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, configFileName))
	v.SetConfigType("toml")

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	if jsonConfigEnv := os.Getenv(EnvConfigJSON); jsonConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, jsonConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode config as toml")
	}

	return string(out), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", errors.Wrap(err, "failed to encode config as json")
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon cannot start without and fills defaults.
func validate(c *Config) error {
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidConfigErrorPrefix)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidConfigErrorPrefix)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Seed.AdminUsername == "" {
		c.Seed.AdminUsername = defaultAdminUsername
	}

	if c.DB.GormEngine == "" {
		c.DB.GormEngine = EngineMySQL
	}

	c.DB.GormEngine = strings.ToLower(c.DB.GormEngine)
	if !c.DB.EngineSupported() {
		return errors.Wrap(ErrUnsupportedGormEngine, c.DB.GormEngine)
	}

	return validateBilling(&c.Billing)
}

func validateBilling(b *Billing) error {
	if !b.Enabled {
		return nil
	}

	if b.SecretKey == "" {
		return errors.Wrap(ErrBillingSecretKeyEmpty, invalidConfigErrorPrefix)
	}

	if b.WebhookSecret == "" {
		return errors.Wrap(ErrBillingWebhookSecretEmpty, invalidConfigErrorPrefix)
	}

	if b.SuccessURL == "" || b.CancelURL == "" {
		return errors.Wrap(ErrBillingRedirectURLEmpty, invalidConfigErrorPrefix)
	}

	if b.APIURL == "" {
		b.APIURL = defaultProviderAPIURL
	}

	if b.WebhookTolerance == 0 {
		b.WebhookTolerance = defaultWebhookTolerance
	}

	if b.RequestTimeout == 0 {
		b.RequestTimeout = defaultProviderTimeout
	}

	return nil
}
