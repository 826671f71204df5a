package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requirements lists keys that must be non-empty per environment, on top of
// the struct tags.
var requirements = map[Environment][]string{
	Production: {"llm_api_key", "db_password"},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateConfig checks struct constraints and the requirements for the
// current environment.
func ValidateConfig(cfg *Config) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems = append(problems, ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed %q constraint (value %v)", fe.Tag(), redact(fe.Field(), fe.Value())),
			}.Error())
		}
	}

	for _, key := range requirements[GetEnvironment()] {
		if requiredValue(cfg, key) == "" {
			problems = append(problems, ValidationError{Field: key, Message: "is required"}.Error())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "\n"))
	}
	return nil
}

func requiredValue(cfg *Config, key string) string {
	switch key {
	case "llm_api_key":
		return cfg.LLMAPIKey
	case "db_password":
		if cfg.DBDriver != "postgres" {
			return "n/a"
		}
		return cfg.DBPassword
	}
	return ""
}

func redact(field string, value interface{}) interface{} {
	lower := strings.ToLower(field)
	if strings.Contains(lower, "password") || strings.Contains(lower, "key") || strings.Contains(lower, "secret") {
		return "***"
	}
	return value
}
