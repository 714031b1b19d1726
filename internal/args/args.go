package args

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markis/gh-stream/internal/config"
)

// Arguments represents the resolved command-line arguments.
type Arguments struct {
	Source    string // URL, file path, or "-" for stdin
	Delimiter string // unescaped boundary bytes
	MediaType string
	SSE       bool
	Chat      bool
	Plain     bool
	Raw       bool
	Verbose   bool
	Profile   string
}

// ParseArgs parses the command line against the loaded configuration. It
// uses Cobra so configured profiles show up as subcommands; a bare
// invocation takes the stream source as its positional argument.
func ParseArgs(cfg config.Config, argv []string) (Arguments, error) {
	args := Arguments{}
	var delimiter string

	rootCmd := &cobra.Command{
		Use:   "gh-stream [profile] [flags] [source]",
		Short: "Consume delimiter-framed streaming responses chunk by chunk",
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			if len(cmdArgs) > 0 {
				args.Source = cmdArgs[0]
			}
			return nil
		},
		SilenceErrors: true, // We'll handle error reporting
		SilenceUsage:  true, // We'll handle usage display
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&delimiter, "delimiter", "d", cfg.Delimiter, `Chunk boundary, escapes allowed (e.g. '\r\n')`)
	flags.StringVarP(&args.MediaType, "type", "t", "", "Chunk media type override")
	flags.BoolVar(&args.SSE, "sse", false, "Treat the stream as server-sent events")
	flags.BoolVar(&args.Chat, "chat", false, "Extract assistant text from chat completion events")
	flags.BoolVar(&args.Plain, "plain", cfg.Format == "plain", "Disable markdown rendering")
	flags.BoolVar(&args.Raw, "raw", false, "Print each chunk on its own line without rendering")
	flags.BoolVarP(&args.Verbose, "verbose", "v", false, "Enable debug logging")

	// Configured profiles become subcommands.
	for name, profile := range cfg.Profiles {
		p := profile
		profileName := name
		cmd := &cobra.Command{
			Use:   profileName + " [source]",
			Short: summarize(p),
			RunE: func(cmd *cobra.Command, cmdArgs []string) error {
				args.Profile = profileName
				args.Source = p.URL
				if len(cmdArgs) > 0 {
					args.Source = cmdArgs[0]
				}
				if p.Delimiter != "" && !cmd.Flags().Changed("delimiter") {
					delimiter = p.Delimiter
				}
				if p.Type != "" && !cmd.Flags().Changed("type") {
					args.MediaType = p.Type
				}
				if p.SSE {
					args.SSE = true
				}
				if p.Chat {
					args.Chat = true
				}
				return nil
			},
		}
		rootCmd.AddCommand(cmd)
	}

	rootCmd.SetArgs(argv)
	if err := rootCmd.Execute(); err != nil {
		return Arguments{}, err
	}

	if args.Source == "" {
		return Arguments{}, errors.New("no stream source provided")
	}

	unescaped, err := Unescape(delimiter)
	if err != nil {
		return Arguments{}, err
	}
	args.Delimiter = unescaped

	return args, nil
}

// Unescape interprets backslash escapes in a delimiter argument, so '\r\n'
// typed in a shell or a config file becomes the CRLF bytes.
func Unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
	if err != nil {
		return "", errors.New("invalid escape sequence in delimiter: " + s)
	}
	return unquoted, nil
}

func summarize(p config.Profile) string {
	if p.Description != "" {
		return summarizeText(p.Description)
	}
	return summarizeText("Stream " + p.URL)
}

func summarizeText(text string) string {
	// Trim and limit the length of the summary
	summary := strings.TrimSpace(text)
	if len(summary) > 60 {
		summary = summary[:57] + "..."
	}
	return summary
}
