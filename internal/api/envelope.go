package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/diewo77/go-hoardings/internal/apperr"
)

// Envelope keys tried after the endpoint's own collection name.
var envelopeKeys = []string{"data", "items", "results"}

// decodeList normalizes a list response. The backend may answer with a bare
// array, with {<name>: [...], count}, or with {data|items|results: [...]};
// data may itself wrap {<name>: [...]}. The result is never nil.
func decodeList[T any](body []byte, name string) ([]T, error) {
	out, err := decodeListDepth[T](body, name, 0)
	if err != nil {
		return nil, apperr.Decode(err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func decodeListDepth[T any](body []byte, name string, depth int) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	switch body[0] {
	case '[':
		var out []T
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("decode %s list: %w", name, err)
		}
		return out, nil
	case '{':
		if depth > 1 {
			break
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("decode %s envelope: %w", name, err)
		}
		for _, k := range append([]string{name}, envelopeKeys...) {
			if raw, ok := obj[k]; ok {
				return decodeListDepth[T](raw, name, depth+1)
			}
		}
	}
	return nil, fmt.Errorf("decode %s list: unrecognized response shape", name)
}

// decodeOne normalizes a single-resource response: bare, {<name>: {...}} or
// {data: {...}}.
func decodeOne[T any](body []byte, name string) (T, error) {
	out, err := decodeOneBody[T](body, name)
	if err != nil {
		var zero T
		return zero, apperr.Decode(err)
	}
	return out, nil
}

func decodeOneBody[T any](body []byte, name string) (T, error) {
	var zero T
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return zero, ErrEmptyResponse
	}
	if body[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return zero, fmt.Errorf("decode %s: %w", name, err)
		}
		for _, k := range []string{name, "data"} {
			if raw, ok := obj[k]; ok && len(bytes.TrimSpace(raw)) > 0 && bytes.TrimSpace(raw)[0] == '{' {
				body = raw
				break
			}
		}
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return zero, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, nil
}
