package session

import (
	"encoding/json"

	"github.com/samber/oops"
)

// Response is one decrypted message received over a session.
type Response struct {
	// Header is the session's header line, for correlation by higher
	// layers.
	Header string

	// Content is the decrypted payload.
	Content []byte

	// Status is the trailing status code of the message.
	Status uint32

	// Flag is the leading status marker; TerminateFlag means this was
	// the peer's final message.
	Flag uint32
}

// Plain returns the payload as a string.
func (r *Response) Plain() string {
	return string(r.Content)
}

// JSON decodes the payload as a JSON object.
func (r *Response) JSON() (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(r.Content, &out); err != nil {
		return nil, oops.Errorf("response payload is not a JSON object: %w", err)
	}
	return out, nil
}

// Ok reports whether the status code is below 400.
func (r *Response) Ok() bool {
	return r.Status < 400
}

// BaseResponse is an outgoing payload paired with its status code.
type BaseResponse struct {
	content []byte
	status  uint32
}

// NewRawResponse wraps raw bytes.
func NewRawResponse(data []byte, status uint32) *BaseResponse {
	return &BaseResponse{content: data, status: status}
}

// NewTextResponse wraps a UTF-8 string.
func NewTextResponse(text string, status uint32) *BaseResponse {
	return &BaseResponse{content: []byte(text), status: status}
}

// NewJSONResponse marshals v as the payload.
func NewJSONResponse(v any, status uint32) (*BaseResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, oops.Errorf("failed to marshal response payload: %w", err)
	}
	return &BaseResponse{content: data, status: status}, nil
}

// Bytes returns the payload.
func (r *BaseResponse) Bytes() []byte {
	return r.content
}

// StatusCode returns the status code.
func (r *BaseResponse) StatusCode() uint32 {
	return r.status
}
