// Package validation provides struct tag validation backed by
// go-playground/validator.
//
// Field names in error messages come from the json tag, then the
// mapstructure tag, so configuration structs and request payloads report
// the names their users actually write.
//
//	type CreateItem struct {
//	    Name string `json:"name" validate:"required,max=64"`
//	}
//	err := validation.Validate(item)
package validation
