package chunk

import (
	"io"
	"net/http"
)

// DecodeContext carries the metadata a Decoder may consult when converting
// raw chunk bytes into a value: the active chunk media type, the response
// headers, decode annotations fixed at construction, and request-scoped
// properties.
type DecodeContext struct {
	MediaType   string
	Headers     http.Header
	Annotations []string
	Properties  map[string]any
}

// Decoder converts the raw bytes of a single chunk into a typed value.
// The framing layer treats it as an opaque capability; decoding failures
// are returned to the caller of Input.Read unchanged.
type Decoder[T any] interface {
	Decode(dc DecodeContext, r io.Reader) (T, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc[T any] func(dc DecodeContext, r io.Reader) (T, error)

func (f DecoderFunc[T]) Decode(dc DecodeContext, r io.Reader) (T, error) {
	return f(dc, r)
}
