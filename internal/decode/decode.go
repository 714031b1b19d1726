// Package decode provides ready-made chunk decoders: JSON and YAML codecs,
// raw text and byte passthrough, media-type dispatch, and field extraction
// for server-sent event payloads.
package decode

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/markis/gh-stream/internal/chunk"
)

// JSON decodes each chunk as a single JSON document.
func JSON[T any]() chunk.Decoder[T] {
	return chunk.DecoderFunc[T](func(_ chunk.DecodeContext, r io.Reader) (T, error) {
		var v T
		if err := json.NewDecoder(r).Decode(&v); err != nil {
			return v, fmt.Errorf("failed to decode JSON chunk: %w", err)
		}
		return v, nil
	})
}

// YAML decodes each chunk as a single YAML document.
func YAML[T any]() chunk.Decoder[T] {
	return chunk.DecoderFunc[T](func(_ chunk.DecodeContext, r io.Reader) (T, error) {
		var v T
		if err := yaml.NewDecoder(r).Decode(&v); err != nil {
			return v, fmt.Errorf("failed to decode YAML chunk: %w", err)
		}
		return v, nil
	})
}

// Text returns each chunk's bytes as a string.
func Text() chunk.Decoder[string] {
	return chunk.DecoderFunc[string](func(_ chunk.DecodeContext, r io.Reader) (string, error) {
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("failed to read chunk: %w", err)
		}
		return string(b), nil
	})
}

// Bytes returns each chunk's raw bytes.
func Bytes() chunk.Decoder[[]byte] {
	return chunk.DecoderFunc[[]byte](func(_ chunk.DecodeContext, r io.Reader) ([]byte, error) {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk: %w", err)
		}
		return b, nil
	})
}

// ByMediaType dispatches to the JSON or YAML codec based on the chunk media
// type carried in the decode context. An empty media type defaults to JSON.
func ByMediaType[T any]() chunk.Decoder[T] {
	jsonDec := JSON[T]()
	yamlDec := YAML[T]()

	return chunk.DecoderFunc[T](func(dc chunk.DecodeContext, r io.Reader) (T, error) {
		mt := dc.MediaType
		if mt != "" {
			if parsed, _, err := mime.ParseMediaType(mt); err == nil {
				mt = parsed
			}
		}
		switch {
		case mt == "" || strings.HasSuffix(mt, "json"):
			return jsonDec.Decode(dc, r)
		case strings.HasSuffix(mt, "yaml") || strings.HasSuffix(mt, "yml"):
			return yamlDec.Decode(dc, r)
		default:
			var zero T
			return zero, fmt.Errorf("no decoder for media type %q", dc.MediaType)
		}
	})
}

// SSEData extracts the data payload from a server-sent event block: data
// field lines are joined with newlines, comment and non-data fields are
// dropped, and the "[DONE]" terminator decodes to an empty string. Intended
// for use with a "\n\n" boundary parser.
func SSEData() chunk.Decoder[string] {
	return chunk.DecoderFunc[string](func(_ chunk.DecodeContext, r io.Reader) (string, error) {
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("failed to read SSE chunk: %w", err)
		}

		var data []string
		for _, line := range strings.Split(string(raw), "\n") {
			line = strings.TrimSuffix(line, "\r")
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if payload == "[DONE]" {
				continue
			}
			data = append(data, payload)
		}
		return strings.Join(data, "\n"), nil
	})
}

// chatResponse mirrors the shape of streaming chat completion events.
type chatResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatText extracts the assistant text from a streaming chat completion SSE
// event: the data payload is parsed as JSON and the first choice's delta (or
// full message) content is returned. Events without content decode to an
// empty string.
func ChatText() chunk.Decoder[string] {
	sse := SSEData()

	return chunk.DecoderFunc[string](func(dc chunk.DecodeContext, r io.Reader) (string, error) {
		payload, err := sse.Decode(dc, r)
		if err != nil {
			return "", err
		}
		if payload == "" {
			return "", nil
		}

		var resp chatResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			return "", fmt.Errorf("failed to decode chat chunk: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		content := resp.Choices[0].Delta.Content
		if content == "" {
			content = resp.Choices[0].Message.Content
		}
		return content, nil
	})
}
