package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/cli/go-gh/v2/pkg/markdown"

	"github.com/markis/gh-stream/internal/stream"
)

type TerminalRenderer struct {
	out       io.Writer
	errOut    io.Writer
	markdown  *glamour.TermRenderer
	plainText bool
	raw       bool
	buffer    strings.Builder
}

func NewTerminalRenderer(out, errOut io.Writer, plainText, raw bool) *TerminalRenderer {
	var md *glamour.TermRenderer
	if !plainText && !raw {
		md, _ = glamour.NewTermRenderer(
			markdown.WithWrap(120),
			glamour.WithAutoStyle(),
		)
	}

	return &TerminalRenderer{
		out:       out,
		errOut:    errOut,
		markdown:  md,
		plainText: plainText,
		raw:       raw,
	}
}

// Render consumes decoded chunks until the channel closes. Chunks that
// failed to decode are reported on the error writer and the stream keeps
// going; markdown output is buffered up to natural break points so partial
// constructs are not rendered mid-block.
func (t *TerminalRenderer) Render(chunks <-chan stream.Chunk[string]) error {
	for chunk := range chunks {
		if chunk.Err != nil {
			fmt.Fprintf(t.errOut, "warning: skipping chunk: %v\n", chunk.Err)
			continue
		}
		if chunk.Value == "" {
			continue
		}

		if t.raw {
			fmt.Fprintln(t.out, chunk.Value)
			continue
		}

		t.buffer.WriteString(chunk.Value)
		content := t.buffer.String()

		if idx := findMarkdownBreakPoint(content); idx > 0 {
			if err := t.renderContent(content[:idx]); err != nil {
				return err
			}
			// Reset buffer with remaining content
			remaining := content[idx:]
			t.buffer.Reset()
			t.buffer.WriteString(remaining)
		}
	}

	// Render any remaining content
	if remaining := t.buffer.String(); remaining != "" {
		if err := t.renderContent(remaining); err != nil {
			return err
		}
	}

	if !t.raw {
		fmt.Fprintln(t.out)
	}
	return nil
}

func (t *TerminalRenderer) renderContent(content string) error {
	if t.plainText || t.markdown == nil {
		fmt.Fprint(t.out, content)
		return nil
	}

	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "#") {
		fmt.Fprintln(t.out)
	}

	mdContent, err := t.markdown.Render(content)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}

	fmt.Fprintln(t.out, strings.TrimSpace(mdContent))
	return nil
}

func findMarkdownBreakPoint(content string) int {
	const marker string = "\n\n"
	lastBreak := -1
	idx := strings.LastIndex(content, marker)
	if idx > lastBreak {
		lastBreak = idx + len(marker)
	}
	return lastBreak
}
