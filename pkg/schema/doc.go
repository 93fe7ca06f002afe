// Package schema provides type validation for loosely typed narrative data.
//
// It knows the value types a story variable can hold (string, number,
// boolean and lists of strings or numbers). Schemas map field names to
// types, so a decoded document can be checked in one pass before anything
// is applied.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "trust":     schema.Number(),
//	    "inventory": schema.Slice(schema.String()),
//	}
//
//	data := map[string]any{
//	    "trust":     30.0,
//	    "inventory": []string{"key"},
//	}
//
//	if err := schema.ValidatePartial(s, data); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // report e
//	    }
//	}
//
// Type names as written in story files are resolved with ParseType.
package schema
