package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wcagscan/internal/pipeline"
	"github.com/ppiankov/wcagscan/internal/server"
	"github.com/ppiankov/wcagscan/internal/store"
)

var (
	serveAddr    string
	serveNoStore bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the audit REST API",
	Long: `Serve exposes audits over HTTP:

  POST /audits         run an audit ({"url": "...", "mode": "auto", "use_ai": false, "codes": []})
  GET  /audits         recent audits (?limit=50)
  GET  /audits/{id}    stored report
  GET  /criteria       registered checks and their capabilities
  GET  /stats          verdict histogram per criterion
  GET  /metrics        Prometheus metrics
  GET  /healthz        liveness`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}

		auditor, err := pipeline.New(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer func() { _ = auditor.Close() }()

		scfg := server.Config{
			Auditor:      auditor,
			Criteria:     auditor.Engine().Criteria(),
			AuditTimeout: cfg.Server.AuditTimeout,
			Logger:       slog.Default(),
		}
		if !serveNoStore {
			st, err := store.Open(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer func() { _ = st.Close() }()
			scfg.Store = st
		}

		return server.New(scfg).ListenAndServe(cmd.Context(), cfg.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "do not persist audits")
}
