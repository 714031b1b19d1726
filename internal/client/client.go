package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/google/uuid"

	"github.com/markis/gh-stream/internal/chunk"
)

// Response is an open streaming HTTP response ready to be consumed chunk by
// chunk.
type Response struct {
	Body      io.ReadCloser
	MediaType string
	Header    http.Header
	RequestID string
}

// getHTTPClient returns a singleton HTTP client
var (
	httpClient     *http.Client
	httpClientOnce sync.Once
	defaultTimeout = 60 * time.Second
)

func getHTTPClient(ctx context.Context) *http.Client {
	httpClientOnce.Do(func() {
		transport := &http.Transport{
			MaxIdleConns:       100,
			IdleConnTimeout:    90 * time.Second,
			DisableCompression: false,
			DisableKeepAlives:  false,
			ForceAttemptHTTP2:  true,
		}

		// Add context-aware dial options
		transport.DialContext = (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext

		httpClient = &http.Client{
			Transport: transport,
		}
	})

	// Check if there's a timeout in the context
	if deadline, ok := ctx.Deadline(); ok {
		// Create a clone of the default client with the context timeout
		clientCopy := *httpClient
		clientCopy.Timeout = time.Until(deadline)
		return &clientCopy
	}

	// Return default client with default timeout
	clientCopy := *httpClient
	clientCopy.Timeout = defaultTimeout
	return &clientCopy
}

// isGitHubHost reports whether requests to host should carry GitHub
// credentials.
func isGitHubHost(host string) bool {
	return host == "github.com" ||
		strings.HasSuffix(host, ".github.com") ||
		strings.HasSuffix(host, ".githubcopilot.com")
}

// Open issues a GET to url and hands back the live response body for
// chunked consumption. When sse is set the request advertises
// text/event-stream. Requests to GitHub hosts are authenticated with the
// token resolved by the gh CLI's credential chain.
func Open(ctx context.Context, url string, sse bool, log *slog.Logger) (*Response, error) {
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Request-Id", requestID)
	if sse {
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")
	}

	if host := req.URL.Hostname(); isGitHubHost(host) {
		if token, source := auth.TokenForHost(host); token != "" {
			log.Debug("using github token", "host", host, "source", source, "request_id", requestID)
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := getHTTPClient(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if err := resp.Body.Close(); err != nil {
			log.Debug("failed to close response body", "error", err)
		}
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	mediaType := resp.Header.Get("Content-Type")
	if mediaType != "" {
		if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
			mediaType = parsed
		}
	}
	log.Debug("stream opened", "url", url, "media_type", mediaType, "request_id", requestID)

	return &Response{
		Body:      resp.Body,
		MediaType: mediaType,
		Header:    resp.Header,
		RequestID: requestID,
	}, nil
}

// ChunkedInput wraps the response body as a chunked input producing decoded
// string chunks. The chunk media type defaults to the response Content-Type.
func ChunkedInput(resp *Response, dec chunk.Decoder[string], parser chunk.Parser, log *slog.Logger) *chunk.Input[string] {
	return chunk.NewInput(resp.Body, dec,
		chunk.WithParser(parser),
		chunk.WithChunkType(resp.MediaType),
		chunk.WithHeaders(resp.Header),
		chunk.WithProperties(map[string]any{"request_id": resp.RequestID}),
		chunk.WithLogger(log),
	)
}
