package httpclient

import (
	"encoding/json"
	"fmt"
)

// Codec serializes request payloads and deserializes response bodies.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// ContentType is sent as Content-Type with payloads and as Accept.
	ContentType() string
}

// JSONCodec is the default Codec.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSONCodec) ContentType() string { return "application/json" }

// ErrorDecoder decodes the body of a 4xx or 5xx response into the API's
// error shape. The result is stored in Error.Payload.
type ErrorDecoder func(codec Codec, body []byte) (any, error)

// DecodeErrorAs returns an ErrorDecoder that decodes error bodies into E.
// Retrieve the value with ErrorPayload[E].
func DecodeErrorAs[E any]() ErrorDecoder {
	return func(codec Codec, body []byte) (any, error) {
		var v E
		if err := codec.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode error body as %T: %w", v, err)
		}
		return v, nil
	}
}

// defaultErrorDecoder decodes into a generic value (map, slice, string...).
var defaultErrorDecoder = DecodeErrorAs[any]()
