package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrBadEvent = errors.New("invalid event payload")

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationError flattens validator output into "field: rule" pairs.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+": "+fe.Tag())
	}
	return fmt.Errorf("%w: %s", ErrBadEvent, strings.Join(parts, ", "))
}

// decodeEvent unmarshals data into T and validates it. Empty data decodes to the zero value.
func decodeEvent[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &v); err != nil {
			return v, fmt.Errorf("%w: %v", ErrBadEvent, err)
		}
	}
	if err := validate.Struct(v); err != nil {
		return v, validationError(err)
	}
	return v, nil
}

func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}
