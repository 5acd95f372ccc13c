// Package cli содержит команды клиента витрины.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/app"
	"github.com/mmeshcher/storefront/internal/config"
)

// runner хранит конфигурацию и собранное приложение на время одной команды.
type runner struct {
	cfg *config.Config
	app *app.App
}

// NewRootCmd создаёт корневую команду. Флаги задают конфигурацию,
// переменные окружения имеют приоритет над флагами.
func NewRootCmd() *cobra.Command {
	r := &runner{cfg: config.Default()}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront catalog, session and cart client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return r.open(cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVarP(&r.cfg.APIBaseURL, "url", "u", r.cfg.APIBaseURL, "backend base URL")
	flags.BoolVarP(&r.cfg.MockMode, "mock", "m", r.cfg.MockMode, "serve catalog from in-memory fixtures")
	flags.DurationVarP(&r.cfg.MockLatency, "latency", "l", r.cfg.MockLatency, "simulated latency in mock mode")
	flags.DurationVarP(&r.cfg.RequestTimeout, "timeout", "t", r.cfg.RequestTimeout, "backend request timeout")
	flags.StringVarP(&r.cfg.StorageDriver, "storage", "s", r.cfg.StorageDriver, "durable storage driver: memory, sqlite, postgres, redis")
	flags.StringVarP(&r.cfg.StorageDSN, "dsn", "d", r.cfg.StorageDSN, "durable storage DSN")
	flags.StringVarP(&r.cfg.LogLevel, "log-level", "v", "warn", "log level")

	root.AddCommand(
		r.listCmd(),
		r.getCmd(),
		r.createCmd(),
		r.updateCmd(),
		r.deleteCmd(),
		r.registerCmd(),
		r.loginCmd(),
		r.verifyCmd(),
		r.logoutCmd(),
		r.whoamiCmd(),
		r.cartCmd(),
	)

	return root
}

func (r *runner) open(cmd *cobra.Command) error {
	if err := config.FromEnv(r.cfg); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := app.NewLogger(r.cfg.LogLevel)
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), r.cfg, logger)
	if err != nil {
		return err
	}
	r.app = a

	return nil
}

func (r *runner) close() {
	if r.app == nil {
		return
	}
	_ = r.app.Logger.Sync()

	if err := r.app.Close(); err != nil {
		r.app.Logger.Warn("close storage failed", zap.Error(err))
	}
	r.app = nil
}

// run оборачивает RunE так, что хранилище закрывается и при ошибке команды.
func (r *runner) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer r.close()
		return fn(cmd, args)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
