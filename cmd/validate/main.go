package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	xsd "github.com/markupkit/go-xsd"
)

func main() {
	schemaPath := flag.String("schema", "", "path to the YAML schema manifest")
	mode := flag.String("mode", "strict", "validation mode: strict, lax or skip")
	jsonOut := flag.Bool("json", false, "emit a JSON diagnostics report")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *schemaPath == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: validate -schema manifest.yaml [-mode strict|lax|skip] [-json] document.xml...")
		os.Exit(2)
	}

	validationMode := xsd.ValidationMode(*mode)
	switch validationMode {
	case xsd.StrictMode, xsd.LaxMode, xsd.SkipMode:
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	cache := xsd.NewSchemaCache(logger)
	schema, err := cache.Load(*schemaPath)
	if err != nil {
		logger.Error("failed to load schema", "path", *schemaPath, "error", err)
		os.Exit(1)
	}

	validator := xsd.NewValidator(schema, validationMode).WithLogger(logger)
	exitCode := 0
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read document", "path", path, "error", err)
			exitCode = 1
			continue
		}
		errs := validator.ValidateDocument(data)
		if *jsonOut {
			if err := xsd.WriteDiagnostics(os.Stdout, errs); err != nil {
				logger.Error("failed to write diagnostics", "error", err)
				exitCode = 1
			}
		} else if len(errs) == 0 {
			fmt.Printf("%s: valid\n", path)
		} else {
			fmt.Printf("%s: %d error(s)\n", path, len(errs))
			for _, e := range errs {
				fmt.Printf("  %v\n", e)
			}
		}
		if len(errs) > 0 {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
