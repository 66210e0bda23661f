package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix namespaces the application's environment variables, e.g.
// TASKFLOW_SERVER_PORT or TASKFLOW_AUTH_JWT_SECRET.
const envPrefix = "TASKFLOW"

// Load reads configuration from environment variables and optionally a
// config.yaml file in the working directory. Environment variables take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Every key needs a default so viper knows it exists; AutomaticEnv only
	// resolves keys it has seen. Secrets default to empty, which still fails
	// the "required" validation when nothing provides a value.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_file", "")
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment may carry everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks the loaded configuration and reports every invalid field,
// not just the first one.
func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		problems = append(problems, fmt.Sprintf(
			"%s failed on %q", fieldErr.Namespace(), fieldErr.Tag()))
	}

	return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
}
