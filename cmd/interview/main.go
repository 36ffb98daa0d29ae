package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mock-interviewer/internal/config"
	"mock-interviewer/internal/console"
	"mock-interviewer/internal/interview"
	"mock-interviewer/internal/questionclient"
	"mock-interviewer/internal/timeline"
	"mock-interviewer/internal/tui"
)

const title = "Excel Mock Interview"

var Version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		env        string
		serviceURL string
		plain      bool
		tick       time.Duration
	)

	cmd := &cobra.Command{
		Use:          "interview",
		Short:        "Practice an Excel interview against the question service",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClientConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("env") {
				cfg.Env = env
			}
			if serviceURL != "" {
				cfg.ServiceURL = serviceURL
			}
			if cmd.Flags().Changed("tick") {
				cfg.RevealInterval = tick
			}
			if !plain && !isatty.IsTerminal(os.Stdout.Fd()) {
				plain = true
			}
			return run(cmd.Context(), cfg, plain)
		},
	}

	cmd.Flags().StringVarP(&env, "env", "e", config.EnvLocal, "Environment (production, local)")
	cmd.Flags().StringVar(&serviceURL, "service-url", "", "Question service base URL (overrides --env)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Use the line-based console instead of the full-screen UI")
	cmd.Flags().DurationVar(&tick, "tick", timeline.DefaultInterval, "Delay between revealed characters")

	return cmd
}

func run(parent context.Context, cfg *config.ClientConfig, plain bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseURL, err := cfg.BaseURL()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	client := questionclient.NewClient(baseURL, nil, logger)
	engine := timeline.NewEngine(cfg.RevealInterval, nil, logger)
	ctrl := interview.NewController(client, engine, logger)
	defer ctrl.Close()

	logger.Info("interview client starting",
		zap.String("service_url", client.BaseURL()),
		zap.Bool("plain", plain),
		zap.Duration("reveal_interval", cfg.RevealInterval),
	)

	if plain {
		err = console.NewSurface(ctrl, os.Stdin, os.Stdout, logger).Run(ctx, title)
	} else {
		err = tui.Run(ctx, ctrl, title, logger)
	}

	reportQuit(ctrl, logger)
	return err
}

// reportQuit avisa al servicio que el candidato salió. Usa su propio timeout
// porque el contexto principal puede estar cancelado.
func reportQuit(ctrl *interview.Controller, logger *zap.Logger) {
	if !ctrl.Session().Established() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ctrl.ReportEvent(ctx, "session_quit", "candidate left the interview"); err != nil {
		logger.Warn("session quit not reported", zap.Error(err))
	}
}

// newLogger escribe a un archivo para no romper la pantalla; sin archivo no loguea.
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
