// Package validation provides custom validation rules for SDK inputs.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"

	apperrors "github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

var (
	// identifierRegex matches an optionally schema-qualified SQL object name.
	identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
)

// WrapValidationError wraps validation errors as domain ErrArgument
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrArgument, err.Error())
}

// Identifier validates a table, view or schema name such as "SCHEMA.TABLE".
var Identifier = validation.NewStringRuleWithError(
	func(s string) bool {
		return identifierRegex.MatchString(s)
	},
	validation.NewError("validation_identifier", "must be a valid identifier, optionally schema-qualified"),
)

// Ed25519Key validates a 32-byte key given as hex or base64 text.
var Ed25519Key = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_ed25519_key_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	enc, err := keysDomain.DetectEncoding([]byte(s))
	if err != nil || enc == keysDomain.EncodingBytes {
		return validation.NewError("validation_ed25519_key", "must be a 32-byte key in hex or base64")
	}
	return nil
})

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
