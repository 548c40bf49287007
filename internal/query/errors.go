package query

import "fmt"

// ValidationError reports a malformed filter or sort input
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a sort field the engine does not know how to order by.
// It is never retried.
type ConfigurationError struct {
	Field SortField
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported sort field %q", string(e.Field))
}
