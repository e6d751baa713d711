package cmd

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/globegrid/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve globe snapshots over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("max-width", 4096, "Maximum snapshot width in pixels")
	serveCmd.Flags().Int("max-height", 4096, "Maximum snapshot height in pixels")
	serveCmd.Flags().Int("max-concurrent-renders", runtime.NumCPU(), "Max concurrent renders")
	serveCmd.Flags().Duration("render-timeout", time.Minute, "Timeout per snapshot render")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served snapshots")
	serveCmd.Flags().Int64("seed", 1337, "Seed for synthetic demo grids")

	mustBind := func(key, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
	mustBind("serve.addr", "addr")
	mustBind("serve.max_width", "max-width")
	mustBind("serve.max_height", "max-height")
	mustBind("serve.max_concurrent_renders", "max-concurrent-renders")
	mustBind("serve.render_timeout", "render-timeout")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.seed", "seed")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	fetcher, closeStore, err := newFetcher(viper.GetInt64("serve.seed"))
	if err != nil {
		return err
	}
	defer closeStore() // nolint:errcheck

	handler, err := server.NewRenderHandler(server.RenderConfig{
		Fetcher:       fetcher,
		SourceURL:     viper.GetString("source"),
		MaxWidth:      viper.GetInt("serve.max_width"),
		MaxHeight:     viper.GetInt("serve.max_height"),
		MaxConcurrent: viper.GetInt("serve.max_concurrent_renders"),
		RenderTimeout: viper.GetDuration("serve.render_timeout"),
		CacheControl:  viper.GetString("serve.cache_control"),
	}, logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/render", handler)

	addr := viper.GetString("serve.addr")
	logger.Info("Serving globe snapshots", "addr", addr, "source", viper.GetString("source"))
	return http.ListenAndServe(addr, mux)
}
