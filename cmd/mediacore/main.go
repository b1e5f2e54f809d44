// Command mediacore es el backend de autenticación y API keys del catálogo de medios.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bjrfx/mediacore/internal/config"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

type globals struct {
	configPath string
	out        string // json | text
}

func main() {
	// .env es opcional; las variables del sistema tienen prioridad
	_ = godotenv.Load()

	g := &globals{configPath: os.Getenv("MEDIACORE_CONFIG"), out: "text"}

	root := &cobra.Command{
		Use:           "mediacore",
		Short:         "Auth, sesiones y API keys para el catálogo de medios",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", g.configPath, "Path al YAML de config (env MEDIACORE_CONFIG)")
	root.PersistentFlags().StringVar(&g.out, "out", g.out, "Formato de salida: json|text")

	root.AddCommand(
		newServeCmd(g),
		newMigrateCmd(g),
		newAPIKeyCmd(g),
		newUserCmd(g),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// load lee la config e inicializa el logger con ella.
func (g *globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	})
	return cfg, nil
}

// print escribe v como JSON indentado o, en modo text, con la función dada.
func (g *globals) print(v any, text func()) {
	if g.out == "json" || text == nil {
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(b))
		return
	}
	text()
}
