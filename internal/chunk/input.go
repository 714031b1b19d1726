// Package chunk implements lazy, boundary-delimited splitting of a byte
// stream into typed chunks. An Input owns an open stream, pulls one
// delimiter-separated chunk from it per Read call, and hands the raw bytes
// to a Decoder for conversion into a value. Nothing is buffered beyond the
// chunk currently being extracted.
package chunk

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"sync/atomic"
)

var (
	// ErrClosed is returned by Read after the input has been closed.
	ErrClosed = errors.New("chunk: input is closed")

	// ErrInvalidChunkType is returned by SetChunkType for an empty or
	// unparseable media type.
	ErrInvalidChunkType = errors.New("chunk: invalid chunk media type")
)

// DefaultBoundary is the boundary used when no parser is configured.
const DefaultBoundary = "\r\n"

// Input reads typed chunks from a delimited byte stream.
//
// One consumer at a time: Read, SetParser and SetChunkType are not safe for
// concurrent use and need external synchronization if shared. Close is the
// exception — it may be called from any goroutine, any number of times.
type Input[T any] struct {
	src    io.ReadCloser
	buf    *bufio.Reader
	dec    Decoder[T]
	closed atomic.Bool

	parser      Parser
	mediaType   string
	headers     http.Header
	annotations []string
	properties  map[string]any
	log         *slog.Logger
}

// Option configures an Input at construction.
type Option func(*options)

type options struct {
	chunkType   string
	headers     http.Header
	annotations []string
	properties  map[string]any
	parser      Parser
	logger      *slog.Logger
}

// WithChunkType sets the initial chunk media type, normally derived from the
// response Content-Type header.
func WithChunkType(mediaType string) Option {
	return func(o *options) { o.chunkType = mediaType }
}

// WithHeaders attaches response headers for decoders to consult.
func WithHeaders(h http.Header) Option {
	return func(o *options) { o.headers = h }
}

// WithAnnotations attaches decode annotations, immutable after construction.
func WithAnnotations(annotations []string) Option {
	return func(o *options) { o.annotations = annotations }
}

// WithProperties attaches request-scoped properties for decoders to consult.
func WithProperties(props map[string]any) Option {
	return func(o *options) { o.properties = props }
}

// WithParser installs the initial framing strategy instead of the default
// fixed "\r\n" boundary parser.
func WithParser(p Parser) Option {
	return func(o *options) { o.parser = p }
}

// WithLogger sets the logger used for diagnostic messages.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.logger = log }
}

// NewInput wraps an open stream as a chunked input. The Input takes
// ownership of src and closes it when the stream is exhausted, a read fails,
// or Close is called.
func NewInput[T any](src io.ReadCloser, dec Decoder[T], opts ...Option) *Input[T] {
	o := options{
		parser: NewParser(DefaultBoundary),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Input[T]{
		src:         src,
		buf:         bufio.NewReader(src),
		dec:         dec,
		parser:      o.parser,
		mediaType:   o.chunkType,
		headers:     o.headers,
		annotations: o.annotations,
		properties:  o.properties,
		log:         o.logger,
	}
}

// Read extracts the next chunk from the stream and decodes it using the
// active chunk media type. It returns io.EOF once the stream is exhausted;
// an I/O failure during extraction is logged, closes the input and also
// presents as io.EOF, so callers that need to tell the two apart must watch
// the diagnostic log. Decoding failures are returned unchanged and leave
// the input open for further reads.
//
// Calling Read on a closed input returns ErrClosed without touching the
// source.
func (in *Input[T]) Read() (T, error) {
	var zero T
	if in.closed.Load() {
		return zero, ErrClosed
	}

	data, err := in.parser.ReadChunk(in.buf)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			in.log.Debug("chunked input read failed", "error", err)
		}
		in.Close()
		return zero, io.EOF
	}

	dc := DecodeContext{
		MediaType:   in.mediaType,
		Headers:     in.headers,
		Annotations: in.annotations,
		Properties:  in.properties,
	}
	return in.dec.Decode(dc, bytes.NewReader(data))
}

// Close releases the underlying stream. It is idempotent and safe for
// concurrent use; only the caller that wins the open-to-closed transition
// performs the release and sees its error, repeat calls are no-ops.
func (in *Input[T]) Close() error {
	if !in.closed.CompareAndSwap(false, true) {
		return nil
	}
	if in.src == nil {
		return nil
	}
	if err := in.src.Close(); err != nil {
		in.log.Debug("closing chunked input source failed", "error", err)
		return err
	}
	return nil
}

// IsClosed reports whether the input has been closed.
func (in *Input[T]) IsClosed() bool {
	return in.closed.Load()
}

// ChunkType returns the media type used to decode subsequent chunks.
func (in *Input[T]) ChunkType() string {
	return in.mediaType
}

// SetChunkType overrides the media type used to decode subsequent chunks.
// The value must be a parseable, non-empty media type.
func (in *Input[T]) SetChunkType(mediaType string) error {
	if mediaType == "" {
		return fmt.Errorf("%w: empty", ErrInvalidChunkType)
	}
	if _, _, err := mime.ParseMediaType(mediaType); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidChunkType, mediaType, err)
	}
	in.mediaType = mediaType
	return nil
}

// Parser returns the active framing strategy.
func (in *Input[T]) Parser() Parser {
	return in.parser
}

// SetParser swaps the framing strategy used for subsequent reads.
func (in *Input[T]) SetParser(p Parser) {
	in.parser = p
}
