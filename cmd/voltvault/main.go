package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"voltvault/internal/api"
	"voltvault/internal/bus"
	"voltvault/internal/config"
	"voltvault/internal/db"
	"voltvault/internal/otel"
	"voltvault/internal/passgen"
	"voltvault/internal/store"
	"voltvault/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           version.Name,
		Short:         "VoltVault password manager backend",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newPassgenCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cleanup, err := otel.Init(ctx, version.Name, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown otel")
		}
	}()

	var st store.Store
	if cfg.DBDSN != "" {
		pool, err := db.Open(ctx, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		st = store.NewPostgres(pool)
		log.Info().Msg("using postgres store")
	} else {
		st = store.NewMemory()
		log.Info().Msg("using in-memory store; state is lost on restart")
	}

	if cfg.DemoMode {
		ds := store.DefaultSeedDataset()
		if cfg.DemoSeedFile != "" {
			ds, err = store.LoadSeedDataset(cfg.DemoSeedFile)
			if err != nil {
				return fmt.Errorf("load seed dataset: %w", err)
			}
		}
		if err := store.SeedDemo(ctx, st, ds); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		log.Info().Str("email", store.DemoEmail).Msg("demo mode enabled")
	}

	var b *bus.Bus
	if cfg.NATSURL != "" {
		b, err = bus.New(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer b.Close()
		log.Info().Str("url", cfg.NATSURL).Msg("event bus connected")
	}

	app, err := api.New(st, b, api.Config{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitRPM:    cfg.RateLimitRPM,
		DemoMode:        cfg.DemoMode,
	}, log.Logger)
	if err != nil {
		return fmt.Errorf("init api: %w", err)
	}

	handler := otelhttp.NewHandler(app.Routes(), version.Name)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting voltvault")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
	return nil
}

func newPassgenCommand() *cobra.Command {
	var (
		length         int
		noUppercase    bool
		noLowercase    bool
		noDigits       bool
		noSymbols      bool
		excludeSimilar bool
	)

	cmd := &cobra.Command{
		Use:   "passgen",
		Short: "Generate a random password",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := passgen.Generate(passgen.Options{
				Length:         length,
				Lowercase:      !noLowercase,
				Uppercase:      !noUppercase,
				Digits:         !noDigits,
				Symbols:        !noSymbols,
				ExcludeSimilar: excludeSimilar,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s (%d bits)\n",
				result.Password, strings.ReplaceAll(result.Strength, "_", " "), result.EntropyBits)
			return nil
		},
	}

	cmd.Flags().IntVar(&length, "length", 16, "Password length")
	cmd.Flags().BoolVar(&noUppercase, "no-uppercase", false, "Exclude uppercase letters")
	cmd.Flags().BoolVar(&noLowercase, "no-lowercase", false, "Exclude lowercase letters")
	cmd.Flags().BoolVar(&noDigits, "no-digits", false, "Exclude digits")
	cmd.Flags().BoolVar(&noSymbols, "no-symbols", false, "Exclude symbols")
	cmd.Flags().BoolVar(&excludeSimilar, "exclude-similar", false, "Exclude easily confused characters")

	return cmd
}
