// Package openapi validates request bodies against the component schemas of
// the embedded API document.
package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/getkin/kin-openapi/openapi3"
)

type Validator struct {
	doc *openapi3.T
}

func Load(spec []byte) (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Components.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi components: %w", err)
	}
	return &Validator{doc: doc}, nil
}

// Has reports whether the document declares schema.
func (v *Validator) Has(schema string) bool {
	ref, ok := v.doc.Components.Schemas[schema]
	return ok && ref != nil && ref.Value != nil
}

func (v *Validator) ValidateBody(schema string, body []byte) error {
	if !v.Has(schema) {
		return internal.NewInternalError("Request schema is not declared", fmt.Errorf("unknown schema %q", schema))
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return internal.NewValidationError("Request body must be valid JSON", internal.ErrCodeInvalidBody).WithCause(err)
	}

	err := v.doc.Components.Schemas[schema].Value.VisitJSON(decoded, openapi3.MultiErrors())
	if err == nil {
		return nil
	}
	return internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
		WithDetails(internal.ValidationErrors{Errors: fieldErrors(err)}).
		WithCause(err)
}

func fieldErrors(err error) []internal.ValidationError {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		out := make([]internal.ValidationError, 0, len(multi))
		for _, e := range multi {
			out = append(out, fieldErrors(e)...)
		}
		return out
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		field := strings.Join(schemaErr.JSONPointer(), ".")
		if field == "" {
			field = "body"
		}
		code := internal.ErrCodeValidationFailed
		switch schemaErr.SchemaField {
		case "enum":
			code = internal.ErrCodeInvalidEnum
		case "pattern":
			// the document only uses pattern for calendar dates
			code = internal.ErrCodeInvalidDate
		}
		return []internal.ValidationError{{Field: field, Message: schemaErr.Reason, Code: string(code)}}
	}
	return []internal.ValidationError{{Field: "body", Message: err.Error(), Code: string(internal.ErrCodeValidationFailed)}}
}
