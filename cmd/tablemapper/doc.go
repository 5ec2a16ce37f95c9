// Command tablemapper is a demo CLI over the reference internal/storebolt
// backend: put/get/delete/scan a single item, batch-load a YAML manifest,
// or serve Prometheus metrics and health endpoints. Grounded on the
// teacher's cmd/warren root-command layout (persistent log-level/log-json
// flags initialized via cobra.OnInitialize, one file per subcommand).
package main
