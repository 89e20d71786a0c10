// Package config provides configuration management for the CLIA tracker.
//
// It utilizes Viper for loading configuration from environment variables,
// a .env file, and an optional config.yaml. Command-line flags override the
// loaded values in the cmd package.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Reconcile: key column, baseline duplicate policy, churn safety ratio
//   - Input: headerless parsing, column list, delimiter
//   - Output: result directory, file prefix, preview cap, report format
//   - Server: HTTP port, API key, body limit
//   - Storage: S3/MinIO credentials and bucket settings
//   - Database: run export connection details
//   - Log: Logging level and format
//
// Every field declares its default in a `default` struct tag, and every key
// can be set from the environment by upper-casing it and replacing dots with
// underscores (output.max_rows becomes OUTPUT_MAX_ROWS).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Output.Dir)
package config
