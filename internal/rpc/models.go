package rpc

import (
	"encoding/json"

	"wallet-background/pkg/rpcerr"
)

// Domain describes the calling page. Everything in here is supplied by the
// page transport and must be treated as untrusted display data.
type Domain struct {
	Domain string `json:"domain"`
	Name   string `json:"name,omitempty"`
	Icon   string `json:"icon,omitempty"`
}

// Request is an inbound provider call from a page context. Immutable once
// received; responses are built by copying, never by mutating the original.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	// Scope is the chain/network identifier the call targets
	Scope string  `json:"scope,omitempty"`
	Site  *Domain `json:"site,omitempty"`
	TabID int     `json:"tabId,omitempty"`
}

// Response pairs the request identity with exactly one of result or error.
type Response struct {
	ID     string        `json:"id"`
	Method string        `json:"method"`
	Result interface{}   `json:"result,omitempty"`
	Error  *rpcerr.Error `json:"error,omitempty"`
}

// Respond builds the success response for r.
func (r *Request) Respond(result interface{}) *Response {
	return &Response{ID: r.ID, Method: r.Method, Result: result}
}

// Fail builds the error response for r.
func (r *Request) Fail(err *rpcerr.Error) *Response {
	return &Response{ID: r.ID, Method: r.Method, Error: err}
}

// PositionalParams decodes the request params into the given destinations.
// Missing trailing params are left at their zero value; a params payload that
// is not a JSON array is an error.
func (r *Request) PositionalParams(dst ...interface{}) error {
	if len(r.Params) == 0 {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(r.Params, &raw); err != nil {
		return err
	}
	for i, target := range dst {
		if i >= len(raw) {
			break
		}
		if err := json.Unmarshal(raw[i], target); err != nil {
			return err
		}
	}
	return nil
}

// ObjectParams decodes a single-object params payload, accepting both the
// bare object and the one-element array convention.
func (r *Request) ObjectParams(dst interface{}) error {
	if len(r.Params) == 0 {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(r.Params, &raw); err == nil {
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw[0], dst)
	}
	return json.Unmarshal(r.Params, dst)
}
