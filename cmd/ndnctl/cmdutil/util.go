// Package cmdutil provides shared utilities for ndnctl commands.
package cmdutil

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/buckyos/ndnd/pkg/ndn/ndnhttp"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	Server  string
	Output  string
	NoColor bool
}

// Client returns an ndnhttp.Client targeting the configured server,
// bounded by a per-request timeout suitable for interactive use.
func Client() *ndnhttp.Client {
	return ndnhttp.NewClientWithTimeout(Flags.Server, 30*time.Second)
}

// Format is the parsed output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat parses the --output flag into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json)", s)
	}
}

// OutputFormat returns the parsed current output format.
func OutputFormat() (Format, error) {
	return ParseFormat(Flags.Output)
}

// PrintSuccess writes a success message to stdout.
func PrintSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

// WriteOut writes data to w, or to a named file when path is non-empty
// and not "-".
func WriteOut(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadIn reads data from path, or from stdin when path is "-".
func ReadIn(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
