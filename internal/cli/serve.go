package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/klartext/klartext/internal/ingest"
	"github.com/klartext/klartext/internal/pipeline"
	"github.com/klartext/klartext/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the KlarText HTTP API",
	Long: `Serve exposes the simplification pipeline over HTTP:

  POST /v1/simplify        simplify one text
  POST /v1/simplify/batch  simplify up to 10 texts concurrently
  POST /v1/ingest/url      extract article text from a web page
  POST /v1/feedback        attach user feedback to a run
  GET  /v1/stats           aggregate run statistics
  GET  /healthz            liveness probe`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "klartext API listening on %s (provider %s)\n", cfg.Server.Addr, cfg.LLM.Provider)
	return server.New(p, ingest.NewFetcher(cfg.HTTP), cfg.Server).Start()
}
