package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/promolink/config"
	"sjsage522/promolink/internal/app"
	"sjsage522/promolink/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "promoparse",
		Short:        "Resolve affiliate share links into product data",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			godotenv.Load()
			logger.Init()
		},
	}
	root.AddCommand(parseCmd(), serveCmd())
	return root
}

var (
	parseRender  bool
	parseTimeout time.Duration
	parseCompact bool
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [url]",
		Short: "Parse one share link and print the envelope JSON",
		Long: `Follow the share link's redirects, pick the store strategy and print the
resulting envelope. Scrape failures still print an envelope with
parseHint "error" and a note.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}

	cmd.Flags().BoolVar(&parseRender, "render", false, "enable the headless browser fallback")
	cmd.Flags().DurationVarP(&parseTimeout, "timeout", "t", 0, "page fetch timeout (default from FETCH_TIMEOUT_SECONDS)")
	cmd.Flags().BoolVar(&parseCompact, "compact", false, "print JSON on a single line")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	cfg.RedisAddr = ""
	cfg.CacheTTL = 0
	if parseRender {
		cfg.RenderEnabled = true
	}
	if parseTimeout > 0 {
		cfg.FetchTimeout = parseTimeout
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := a.Pipeline.Parse(ctx, args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	if !parseCompact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(env)
}

var serveAddr string

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the parse HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from HTTP_ADDR)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	if serveAddr != "" {
		cfg.HTTPAddr = serveAddr
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx)
}
