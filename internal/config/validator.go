package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/novix-hq/channelgate/internal/domain/rbac"
)

// RegisterCustomValidators registers gateway-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// key_hash: validates "sha256:<hex>" or an argon2id PHC string
	if err := v.RegisterValidation("key_hash", validateKeyHash); err != nil {
		return fmt.Errorf("failed to register key_hash validator: %w", err)
	}
	return nil
}

// validateKeyHash validates an admin key hash field.
// Valid forms: "sha256:<hex>" or "$argon2id$..."
func validateKeyHash(fl validator.FieldLevel) bool {
	hash := fl.Field().String()

	if strings.HasPrefix(hash, "sha256:") {
		return len(strings.TrimPrefix(hash, "sha256:")) == 64
	}
	return strings.HasPrefix(hash, "$argon2id$")
}

// Validate validates the Config using struct tags and custom cross-field rules.
// Returns an error if validation fails, with actionable error messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateChannels(); err != nil {
		return err
	}

	if err := c.validateAdminRoles(); err != nil {
		return err
	}

	if c.Bot.Timeout != "" {
		if _, err := time.ParseDuration(c.Bot.Timeout); err != nil {
			return fmt.Errorf("bot.timeout: invalid duration %q", c.Bot.Timeout)
		}
	}

	return nil
}

// validateChannels enforces per-provider requirements and that at least one
// channel is enabled.
func (c *Config) validateChannels() error {
	anyEnabled := c.Channels.WAHA.Enabled || c.Channels.WhatsAppCloud.Enabled || c.Channels.Meta.Enabled
	if !anyEnabled {
		return errors.New("channels: at least one provider must be enabled")
	}

	if c.Channels.WhatsAppCloud.Enabled && c.Channels.WhatsAppCloud.VerifyToken == "" {
		return errors.New("channels.whatsapp_cloud: verify_token is required when enabled")
	}
	if c.Channels.Meta.Enabled {
		if c.Channels.Meta.VerifyToken == "" {
			return errors.New("channels.meta: verify_token is required when enabled")
		}
		if c.Channels.Meta.PageID == "" {
			return errors.New("channels.meta: page_id is required when enabled")
		}
	}
	return nil
}

// validateAdminRoles ensures every configured admin key names a known role.
func (c *Config) validateAdminRoles() error {
	for i, key := range c.Admin.APIKeys {
		if !rbac.Role(key.Role).IsValid() {
			return fmt.Errorf("admin.api_keys[%d] (%s): unknown role %q", i, key.Name, key.Role)
		}
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "key_hash":
		return fmt.Sprintf("%s must be 'sha256:<hex>' or an argon2id hash", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
