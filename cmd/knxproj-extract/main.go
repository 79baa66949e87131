// knxproj-extract decodes an ETS project export and writes the resolved
// model as JSON.
//
// Usage:
//
//	knxproj-extract [-config knxproj.yaml] [-password secret] [-o out.json] project.knxproj
//
// The project password may also be supplied via KNXPROJ_PASSWORD, which
// keeps it out of the process list.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/nerrad567/knxproj"
	"github.com/nerrad567/knxproj/internal/infrastructure/config"
	"github.com/nerrad567/knxproj/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML configuration (optional)")
	password := flag.String("password", "", "project password (or KNXPROJ_PASSWORD)")
	language := flag.String("lang", "", "translation language code, e.g. de-DE")
	output := flag.String("o", "", "output file (default stdout)")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("expected exactly one project file argument")
	}
	path := flag.Arg(0)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	log := logging.New(cfg.Logging, version)

	pw := *password
	if pw == "" {
		pw = os.Getenv("KNXPROJ_PASSWORD")
	}
	lang := *language
	if lang == "" {
		lang = cfg.Language
	}

	log.Info("parsing project", "path", path)
	project, err := knxproj.ParseFile(path,
		knxproj.WithPassword(pw),
		knxproj.WithLanguage(lang),
		knxproj.WithLogger(log),
	)
	if err != nil {
		return err
	}
	log.Info("project parsed",
		"devices", len(project.Devices),
		"group_addresses", len(project.GroupAddresses))

	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}
	data = append(data, '\n')

	if *output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
