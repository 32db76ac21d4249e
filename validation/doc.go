// Package validation checks request bodies against `validate` struct tags.
//
//	type UpdateBody struct {
//	    OriginalFilename *string `json:"originalFilename" validate:"omitnil,min=1,max=255"`
//	    MimeType         *string `json:"mimeType" validate:"omitnil,mediatype"`
//	}
//	if err := validation.Validate(body); err != nil { ... }
//
// Failures are returned as *errors.AppError with one entry per field under
// details.fields, keyed by the field's JSON name.
package validation
