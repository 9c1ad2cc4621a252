package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dalnoboi/cmd/importer"
	mapservice "dalnoboi/cmd/map_service"
	"dalnoboi/internal/cli"
)

const defaultConfig = "config/config.yaml"

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse mode and collect the remaining args for that mode
	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// run the service specified by the mode flag
	switch mode {

	case cli.ModeMap:
		fs := flag.NewFlagSet(cli.ModeMap, flag.ContinueOnError)
		configPath := fs.String("config", defaultConfig, "Path to the YAML config file")
		maxConc := fs.Int("max-concurrent", 100, "Maximum number of concurrent HTTP requests to process")
		prefetch := fs.Int("prefetch", 10, "RabbitMQ prefetch count for the order status consumer")
		cli.AttachUsage(fs, cli.ModeMap)

		parseFlags(fs, svcArgs)
		if *maxConc < 1 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if *prefetch <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --prefetch must be > 0")
			fs.Usage()
			os.Exit(2)
		}
		if err := mapservice.Run(ctx, *configPath, *maxConc, *prefetch); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeImporter:
		fs := flag.NewFlagSet(cli.ModeImporter, flag.ContinueOnError)
		configPath := fs.String("config", defaultConfig, "Path to the YAML config file")
		file := fs.String("file", "", "Spreadsheet to import (.xlsx)")
		sheet := fs.String("sheet", "Cargos", "Sheet name to read or write")
		export := fs.String("export", "", "Write the built-in dataset to this .xlsx file instead of importing")
		cli.AttachUsage(fs, cli.ModeImporter)

		parseFlags(fs, svcArgs)
		if *file == "" && *export == "" {
			fmt.Fprintln(os.Stderr, "Error: --file or --export is required")
			fs.Usage()
			os.Exit(2)
		}
		opts := importer.Options{ConfigPath: *configPath, File: *file, Sheet: *sheet, Export: *export}
		if err := importer.Run(ctx, opts); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	default:
		// should not happen because ParseMode validates known modes
		fmt.Fprintln(os.Stderr, "Error: unknown mode")
		os.Exit(2)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}

func parseFlags(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
