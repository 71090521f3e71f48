package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

func validate(c *Config) error {
	if err := ValidateStruct(c); err != nil {
		return err
	}
	if c.PoolSize > DefaultMaxPoolSize {
		return fmt.Errorf("browser pool size must be between %d (auto) and %d", AutoPoolSize, DefaultMaxPoolSize)
	}
	return nil
}

// ValidateStruct runs struct-tag validation on v and flattens the
// validator's field errors into one readable error.
func ValidateStruct(v any) error {
	err := structValidator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
