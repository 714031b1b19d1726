package stream

import (
	"context"
	"errors"
	"io"

	"github.com/markis/gh-stream/internal/chunk"
)

// Chunk carries one decoded value pulled from a chunked input, or the error
// that kept it from decoding.
type Chunk[T any] struct {
	Value T
	Err   error
}

// Pump drains a chunked input into a channel so a consumer can range over
// decoded values as they arrive.
type Pump[T any] struct {
	ctx    context.Context
	chunks chan Chunk[T]
}

func NewPump[T any](ctx context.Context) *Pump[T] {
	return &Pump[T]{
		ctx:    ctx,
		chunks: make(chan Chunk[T]),
	}
}

func (p *Pump[T]) Chunks() <-chan Chunk[T] {
	return p.chunks
}

// Run reads from in until the stream is exhausted, forwarding each decoded
// value on the chunks channel. Decode failures are forwarded as error chunks
// without stopping the stream. The channel is closed when the input reports
// exhaustion, the input was closed elsewhere, or the context is cancelled.
func (p *Pump[T]) Run(in *chunk.Input[T]) {
	defer close(p.chunks)
	defer in.Close()
	done := p.ctx.Done()

	for {
		select {
		case <-done:
			p.chunks <- Chunk[T]{Err: p.ctx.Err()}
			return
		default:
		}

		v, err := in.Read()
		if errors.Is(err, io.EOF) || errors.Is(err, chunk.ErrClosed) {
			return
		}

		c := Chunk[T]{Value: v, Err: err}
		select {
		case p.chunks <- c:
		case <-done:
			return
		}
	}
}
