package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Field is one key/value pair returned by the lookup service
type Field struct {
	Key   string
	Value interface{}
}

// LookupResult is the address record returned for one CEP.
// Fields keep the order and the open-ended key set of the remote JSON body.
type LookupResult struct {
	Fields []Field
}

// NewLookupResult builds a result from ordered fields, making sure the cep key is present
func NewLookupResult(cep string, fields []Field) *LookupResult {
	r := &LookupResult{Fields: fields}
	if _, ok := r.Get("cep"); !ok {
		r.Fields = append([]Field{{Key: "cep", Value: cep}}, r.Fields...)
	}
	return r
}

// Get returns the value stored under key
func (r *LookupResult) Get(key string) (interface{}, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// GetString returns the value stored under key rendered as text
func (r *LookupResult) GetString(key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// CEP returns the cep field of the result
func (r *LookupResult) CEP() string {
	return r.GetString("cep")
}

// MarshalJSON writes the fields as a JSON object in their original order
func (r LookupResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the order of its keys.
// Numbers are kept as json.Number so they render exactly as received.
func (r *LookupResult) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("lookup result must be a JSON object")
	}

	fields := make([]Field, 0, 12)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		fields = append(fields, Field{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	r.Fields = fields
	return nil
}

// NotFound reports whether the body carries the service's not-found flag ("erro": true)
func (r *LookupResult) NotFound() bool {
	v, ok := r.Get("erro")
	if !ok {
		return false
	}
	switch flag := v.(type) {
	case bool:
		return flag
	case string:
		return flag == "true"
	}
	return false
}

// FormatValue renders a field value as text. Empty, false and zero values render
// as an empty string.
func FormatValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		if !value {
			return ""
		}
		return "true"
	case json.Number:
		if f, err := value.Float64(); err == nil && f == 0 {
			return ""
		}
		return value.String()
	case float64:
		if value == 0 {
			return ""
		}
		return fmt.Sprint(value)
	case []interface{}:
		if len(value) == 0 {
			return ""
		}
	case map[string]interface{}:
		if len(value) == 0 {
			return ""
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// LookupError records a CEP that could not be resolved
type LookupError struct {
	CEP       string    `json:"cep" example:"00000000"`
	Error     string    `json:"error" example:"CEP not found"`
	Timestamp time.Time `json:"timestamp" example:"2025-08-25T17:25:30.468715-03:00"`
}

// Outcome is the final state of one CEP lookup. Exactly one of Result and Err is set.
type Outcome struct {
	CEP      string
	Result   *LookupResult
	Err      *LookupError
	Attempts int
	Cached   bool
}

// Succeeded reports whether the lookup produced a result
func (o Outcome) Succeeded() bool {
	return o.Result != nil
}
