package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeMap      = "map-service"
	ModeImporter = "importer"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeMap, "map", "m":
		return ModeMap, true
	case ModeImporter, "import", "i":
		return ModeImporter, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `map-service --max-concurrent=100`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := range args {
		arg := args[i]
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<service>")
	}

	m, ok := isKnownMode(mode)
	if !ok {
		return "", out, fmt.Errorf("unknown mode %q", mode)
	}
	return m, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./dalnoboi --mode=<service> [flags]

Services (modes):
  map-service      HTTP API and WebSocket map sessions for the cargo marketplace
  importer         Load a cargo spreadsheet into Postgres, or export the demo dataset

Examples:
  ./dalnoboi --mode=map-service --max-concurrent=150
  ./dalnoboi --mode=map-service --config=config/config.yaml --prefetch=8
  ./dalnoboi --mode=importer --file=cargos.xlsx --sheet=Cargos
  ./dalnoboi --mode=importer --export=seed.xlsx`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./dalnoboi --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
