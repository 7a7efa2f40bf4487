package commands

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/spaceandtimelabs/sxt-go-sdk/internal/validation"
)

// Validate checks the biscuit options before any key is touched.
func (o *BiscuitOptions) Validate() error {
	err := validation.ValidateStruct(o,
		validation.Field(&o.Name, validation.Required, appValidation.NotBlank, appValidation.NoWhitespace),
		validation.Field(&o.PrivateKey, appValidation.Ed25519Key),
		validation.Field(&o.Resources, validation.Required, validation.Each(appValidation.Identifier)),
		validation.Field(&o.Permissions, validation.Required),
		validation.Field(&o.Identities, validation.Each(appValidation.NotBlank, appValidation.NoWhitespace)),
		validation.Field(&o.ValidFor, validation.Min(0)),
	)
	return appValidation.WrapValidationError(err)
}

// Validate checks the statement options.
func (o *QueryOptions) Validate() error {
	err := validation.ValidateStruct(o,
		validation.Field(&o.SQL, validation.Required, appValidation.NotBlank),
		validation.Field(&o.Resources, validation.Each(appValidation.Identifier)),
		validation.Field(&o.Biscuits, validation.Each(appValidation.NotBlank, appValidation.NoWhitespace)),
		validation.Field(&o.PublicKey, appValidation.Ed25519Key),
	)
	return appValidation.WrapValidationError(err)
}

// Validate checks the discovery filters.
func (o *DiscoverOptions) Validate() error {
	err := validation.ValidateStruct(o,
		validation.Field(&o.Schema, appValidation.Identifier),
		validation.Field(&o.Table, appValidation.Identifier),
		validation.Field(&o.Pattern, appValidation.NoWhitespace),
	)
	return appValidation.WrapValidationError(err)
}

// Validate checks the resource definition.
func (o *ResourceNewOptions) Validate() error {
	err := validation.ValidateStruct(o,
		validation.Field(&o.Name, validation.Required, appValidation.NotBlank, appValidation.NoWhitespace),
		validation.Field(&o.DDL, validation.Required, appValidation.NotBlank),
		validation.Field(&o.RefreshInterval, validation.Min(0)),
		validation.Field(&o.TableBiscuit, appValidation.NoWhitespace),
	)
	return appValidation.WrapValidationError(err)
}
