package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Envelope is a decoded API response body.
//
// The API usually answers with {status, data, errors}, but the shape is not
// enforced: Body holds whatever JSON document was returned, with numbers
// decoded as json.Number.
type Envelope struct {
	StatusCode int
	Body       any
}

// Object returns the body as a JSON object
func (e *Envelope) Object() (map[string]any, bool) {
	if e == nil {
		return nil, false
	}
	obj, ok := e.Body.(map[string]any)
	return obj, ok
}

// Data returns the data field when present and non-null
func (e *Envelope) Data() (any, bool) {
	obj, ok := e.Object()
	if !ok {
		return nil, false
	}
	data, ok := obj["data"]
	if !ok || data == nil {
		return nil, false
	}
	return data, true
}

// Payload returns the data field, falling back to the whole body
func (e *Envelope) Payload() any {
	if data, ok := e.Data(); ok {
		return data
	}
	if e == nil {
		return nil
	}
	return e.Body
}

// Failed reports whether the body carries an explicit status: false marker
func (e *Envelope) Failed() bool {
	obj, ok := e.Object()
	if !ok {
		return false
	}
	status, ok := obj["status"].(bool)
	return ok && !status
}

// Errors returns the errors field, or nil when absent
func (e *Envelope) Errors() any {
	obj, ok := e.Object()
	if !ok {
		return nil
	}
	return obj["errors"]
}

// isErrorEnvelope reports whether an HTTP error body is recognisable as an
// API error envelope
func (e *Envelope) isErrorEnvelope() bool {
	obj, ok := e.Object()
	if !ok {
		return false
	}
	if errs, ok := obj["errors"]; ok && errs != nil {
		return true
	}
	return e.Failed()
}

// decodeBody decodes a complete JSON document, rejecting empty bodies,
// a bare null, and trailing data.
func decodeBody(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty body")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON document")
	}
	if doc == nil {
		return nil, fmt.Errorf("null document")
	}
	return doc, nil
}

// interpret turns a status code and raw body into an envelope or a typed error.
func interpret(statusCode int, raw []byte) (*Envelope, error) {
	doc, decodeErr := decodeBody(raw)

	if statusCode >= 400 {
		if decodeErr == nil {
			env := &Envelope{StatusCode: statusCode, Body: doc}
			if env.isErrorEnvelope() {
				return nil, Classify(statusCode, env.Errors())
			}
		}
		return nil, httpStatusError(statusCode, raw)
	}

	if decodeErr != nil {
		return nil, invalidBodyError(decodeErr)
	}

	env := &Envelope{StatusCode: statusCode, Body: doc}
	if env.Failed() {
		return nil, Classify(statusCode, env.Errors())
	}
	return env, nil
}
