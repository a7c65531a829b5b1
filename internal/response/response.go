package response

import (
	"bytes"
	"encoding/json"
)

// Response is the structured answer returned to the caller.
type Response struct {
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Actions    []string `json:"actions"`
}

// MarshalJSON keeps an empty action list as [] rather than null. It does not escape
// < > & itself, so an encoder with SetEscapeHTML(false) prints them verbatim;
// json.Marshal and default encoders still escape them.
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	p := plain(r)
	if p.Actions == nil {
		p.Actions = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
