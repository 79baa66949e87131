// Package config handles loading and validating the extractor CLI
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Default value handling and validation
//
// Security Considerations:
//   - Project passwords are never read from the config file; pass them
//     via flag or the KNXPROJ_PASSWORD environment variable
//
// Usage:
//
//	cfg, err := config.Load("knxproj.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Logging.Level)
package config
