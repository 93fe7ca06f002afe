package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"trust": Number(), "inventory": Slice(String())}
type Schema map[string]Type

// ValidatePartial checks only the fields present in data. A field that is
// not declared by the schema is an error.
func ValidatePartial(schema Schema, data map[string]any) error {
	if len(data) == 0 {
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, fieldName := range keys {
		value := data[fieldName]
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "not defined in schema",
			})
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
