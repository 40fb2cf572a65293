package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/config"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	data    string
	headers []string
)

// APICmd sends a raw authenticated request.
var APICmd = &cobra.Command{
	Use:   "api <METHOD> <path>",
	Short: "Send an authenticated request to the portal API",
	Long: `Sends METHOD path through the session transport: the stored bearer token is
attached and an expired access token is refreshed once before the request is
replayed. The JSON response is pretty-printed.

Use --data @file to read the body from a file or --data @- for stdin. An
absolute URL on another host is sent without your credentials.`,
	Example: `  portalctl api GET /core/events/
  portalctl api POST /core/queries/ --data '{"subject":"timetable"}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		transport, err := cfg.ClientProvider.Transport()
		if err != nil {
			return err
		}

		body, err := readBody(data, os.Stdin)
		if err != nil {
			return err
		}

		var opts []sdk.RequestOption
		for _, h := range headers {
			key, value, ok := strings.Cut(h, ":")
			if !ok {
				return fmt.Errorf("invalid header %q (expected Key: Value)", h)
			}
			opts = append(opts, sdk.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value)))
		}

		resp, err := transport.Do(cmd.Context(), strings.ToUpper(args[0]), args[1], body, opts...)
		if err != nil {
			return err
		}
		return writeBody(os.Stdout, resp.Body)
	},
}

func init() {
	APICmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body, @file or @- for stdin")
	APICmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra header (Key: Value), repeatable")
}

// readBody resolves the --data flag. A nil result sends no body.
func readBody(arg string, stdin io.Reader) ([]byte, error) {
	if arg == "" {
		return nil, nil
	}

	var raw []byte
	switch {
	case arg == "@-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read body from stdin: %w", err)
		}
		raw = b
	case strings.HasPrefix(arg, "@"):
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		raw = b
	default:
		raw = []byte(arg)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("request body is not valid JSON")
	}
	return raw, nil
}

// writeBody pretty-prints JSON and copies anything else verbatim.
func writeBody(w io.Writer, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		_, err = w.Write(body)
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}
