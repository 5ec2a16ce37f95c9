package main

import (
	"fmt"
	"net/http"

	"github.com/cuemby/tablemapper/pkg/metrics"
	"github.com/cuemby/tablemapper/pkg/tlog"
	"github.com/spf13/cobra"
)

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve Prometheus metrics and health endpoints",
	RunE:  runServeMetrics,
}

func init() {
	serveMetricsCmd.Flags().String("addr", ":9090", "listen address")
}

func runServeMetrics(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	metrics.SetVersion(Version)
	metrics.RegisterComponent("store", true, "")

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", metrics.HealthHandler())
	mux.Handle("/readyz", metrics.ReadyHandler())
	mux.Handle("/livez", metrics.LivenessHandler())

	tlog.WithComponent("serve-metrics").Info().Str("addr", addr).Msg("listening")
	fmt.Printf("serving metrics on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}
