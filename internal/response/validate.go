package response

import "fmt"

// ErrorKind identifies which constraint a response violated.
type ErrorKind int

const (
	KindNotObject ErrorKind = iota + 1
	KindMissingKey
	KindWrongType
	KindOutOfRange
	KindWrongElementType
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotObject:
		return "not_object"
	case KindMissingKey:
		return "missing_key"
	case KindWrongType:
		return "wrong_type"
	case KindOutOfRange:
		return "out_of_range"
	case KindWrongElementType:
		return "wrong_element_type"
	default:
		return "unknown"
	}
}

// ValidationError describes the first constraint a model response failed.
type ValidationError struct {
	Kind  ErrorKind
	Field string
	Index int    // element index for KindWrongElementType
	Got   string // JSON type name of the offending value
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindNotObject:
		return "response must be a JSON object"
	case KindMissingKey:
		return fmt.Sprintf("missing key: %s", e.Field)
	case KindWrongElementType:
		return fmt.Sprintf("actions must be a list of strings (element %d is %s)", e.Index, e.Got)
	}

	switch e.Field {
	case "answer":
		return "answer must be a string"
	case "confidence":
		return "confidence must be a number between 0 and 1"
	case "actions":
		return "actions must be a list"
	}
	return fmt.Sprintf("invalid %s", e.Field)
}

var requiredKeys = []string{"answer", "confidence", "actions"}

// Validate checks a decoded JSON value against the response shape.
// Keys beyond the required ones are ignored.
func Validate(v any) error {
	_, err := decode(v)
	return err
}

// Decode validates v and converts it to a Response.
func Decode(v any) (*Response, error) {
	return decode(v)
}

func decode(v any) (*Response, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Kind: KindNotObject, Got: jsonType(v)}
	}

	for _, key := range requiredKeys {
		if _, ok := obj[key]; !ok {
			return nil, &ValidationError{Kind: KindMissingKey, Field: key}
		}
	}

	answer, ok := obj["answer"].(string)
	if !ok {
		return nil, &ValidationError{Kind: KindWrongType, Field: "answer", Got: jsonType(obj["answer"])}
	}

	confidence, ok := number(obj["confidence"])
	if !ok {
		return nil, &ValidationError{Kind: KindWrongType, Field: "confidence", Got: jsonType(obj["confidence"])}
	}
	// NaN fails both comparisons, so test for inclusion rather than exclusion.
	if !(confidence >= 0 && confidence <= 1) {
		return nil, &ValidationError{Kind: KindOutOfRange, Field: "confidence", Got: "number"}
	}

	rawActions, ok := obj["actions"].([]any)
	if !ok {
		return nil, &ValidationError{Kind: KindWrongType, Field: "actions", Got: jsonType(obj["actions"])}
	}
	actions := make([]string, 0, len(rawActions))
	for i, a := range rawActions {
		s, ok := a.(string)
		if !ok {
			return nil, &ValidationError{Kind: KindWrongElementType, Field: "actions", Index: i, Got: jsonType(a)}
		}
		actions = append(actions, s)
	}

	return &Response{
		Answer:     answer,
		Confidence: confidence,
		Actions:    actions,
	}, nil
}

// number accepts the numeric types encoding/json and Go callers produce. Booleans are not numbers.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
