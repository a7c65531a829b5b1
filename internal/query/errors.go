package query

import "fmt"

// ParseError means the model returned content that is not well-formed JSON.
type ParseError struct {
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model response as JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
