package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// ByteSource is the minimal stream contract a framing strategy reads from.
// A *bufio.Reader satisfies it.
type ByteSource interface {
	io.Reader
	io.ByteReader
}

// Parser extracts one chunk per call from a byte stream. Implementations
// return the chunk's bytes with the framing removed, io.EOF once the source
// is exhausted with nothing accumulated, or the underlying read error.
//
// Returned slices must be detached copies; a parser may not hand out memory
// it will reuse on the next call. Consumed bytes are gone for good — there
// is no rewind.
type Parser interface {
	ReadChunk(in ByteSource) ([]byte, error)
}

// NewParser returns a parser that splits the stream on the literal boundary
// string. The boundary must be non-empty.
func NewParser(boundary string) Parser {
	return NewBytesParser([]byte(boundary))
}

// NewBytesParser returns a parser that splits the stream on a fixed boundary
// byte sequence. The boundary must be non-empty.
func NewBytesParser(boundary []byte) Parser {
	if len(boundary) == 0 {
		panic("chunk: boundary must not be empty")
	}
	b := make([]byte, len(boundary))
	copy(b, boundary)
	return &fixedBoundaryParser{boundary: b}
}

// fixedBoundaryParser matches the boundary byte by byte. Bytes that match a
// prefix of the boundary are held in a side buffer until the match either
// completes or fails; on failure they are flushed back into the chunk so no
// content is lost.
type fixedBoundaryParser struct {
	boundary []byte
}

func (p *fixedBoundaryParser) ReadChunk(in ByteSource) ([]byte, error) {
	var out bytes.Buffer
	match := make([]byte, len(p.boundary))

	for {
		mPos := 0
		for mPos < len(p.boundary) {
			b, err := in.ReadByte()
			if err != nil {
				if errors.Is(err, io.EOF) {
					// Trailing content without a final boundary is still a
					// chunk, including any dangling partial match.
					out.Write(match[:mPos])
					if out.Len() > 0 {
						return detach(&out), nil
					}
					return nil, io.EOF
				}
				return nil, err
			}

			if b == p.boundary[mPos] {
				match[mPos] = b
				mPos++
				continue
			}
			if mPos > 0 {
				// Failed partial match: the held bytes are ordinary content,
				// and b itself may start a fresh match.
				out.Write(match[:mPos])
				mPos = 0
				if b == p.boundary[0] {
					match[0] = b
					mPos = 1
					continue
				}
			}
			out.WriteByte(b)
		}

		if out.Len() > 0 {
			return detach(&out), nil
		}
		// Boundary matched with nothing before it; skip the empty chunk and
		// keep reading.
	}
}

func detach(buf *bytes.Buffer) []byte {
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

// NewLengthPrefixedParser returns a parser for uvarint length-prefixed
// framing: each chunk is preceded by its size. Useful for binary streams
// where the payload may contain any delimiter.
func NewLengthPrefixedParser() Parser {
	return lengthPrefixedParser{}
}

type lengthPrefixedParser struct{}

func (lengthPrefixedParser) ReadChunk(in ByteSource) ([]byte, error) {
	size, err := binary.ReadUvarint(in)
	if err != nil {
		// io.EOF here is a clean end of stream; don't annotate it.
		return nil, err
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(in, data); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return data, nil
}
