// Package cli implements the qrfield CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rcliao/qrfield/internal/config"
	"github.com/rcliao/qrfield/internal/hook"
	"github.com/rcliao/qrfield/internal/qr"
	"github.com/rcliao/qrfield/internal/store"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "qrfield",
	Short: "Render @QRCODE action tags into record fields",
	Long: `qrfield renders the content of a source field as a QR code into any field
annotated with @QRCODE="source". It runs the save and page-render hooks
against a SQLite-backed host store, from the command line or over HTTP.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $QRFIELD_DB or the config's db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $QRFIELD_CONFIG or ~/.qrfield/config.yaml)")
}

func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.DB = dbPath
	}
	return cfg
}

func openStore(cfg config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DB, cfg.EdocDir)
}

// openModule wires the hooks to s using the configured renderer.
func openModule(cfg config.Config, s *store.SQLiteStore) *hook.Module {
	renderer, err := qr.New(qr.Options{Backend: cfg.Renderer.Backend, SearchPaths: cfg.Renderer.SearchPaths})
	if err != nil {
		exitErr("renderer", err)
	}
	log := cfg.Logger()
	return hook.NewModule(s, hook.NewWriter(s, s, renderer, cfg.TempDir, log), log)
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
