package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/royalcat/cantonmap/config"
	"github.com/royalcat/cantonmap/dashboard"
	"github.com/royalcat/cantonmap/dataset"
	"github.com/royalcat/cantonmap/internal/stats"
	"github.com/royalcat/cantonmap/internal/telemetry"
	"github.com/royalcat/cantonmap/server"
	"go.opentelemetry.io/otel"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/urfave/cli/v3"
	_ "go.uber.org/automaxprocs"
)

const appName = "cantonmap"

func main() {
	app := &cli.App{
		Name:        appName,
		Description: "Swiss canton map dashboard: company markers, energy potential and energy balance",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the dashboard api",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "config",
						Aliases:   []string{"c"},
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "boundaries",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "companies",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "potential",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "balance",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:        "listen",
						DefaultText: ":8080",
					},
					&cli.Float64Flag{
						Name:        "tolerance",
						Usage:       "click tolerance radius in degrees",
						DefaultText: "0.01",
					},
					&cli.StringFlag{
						Name:  "telemetry-endpoint",
						Usage: "otlp http endpoint, OTEL_*_EXPORTER environment is used when empty",
					},
				},
				Action: serve,
			},
			{
				Name:    "normalize",
				Aliases: []string{"n"},
				Usage:   "rewrite comma decimal coordinates of a csv file with dots",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "input",
						Aliases:   []string{"i"},
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "output",
						Aliases:   []string{"o"},
						TakesFile: true,
					},
				},
				Action: normalize,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.ConfigDefault()
	if path := ctx.String("config"); path != "" {
		var err error
		cfg, err = config.LoadFile(path)
		if err != nil {
			return cfg, err
		}
	}

	if ctx.IsSet("boundaries") {
		cfg.Data.Boundaries = ctx.String("boundaries")
	}
	if ctx.IsSet("companies") {
		cfg.Data.Companies = ctx.String("companies")
	}
	if ctx.IsSet("potential") {
		cfg.Data.Potential = ctx.String("potential")
	}
	if ctx.IsSet("balance") {
		cfg.Data.Balance = ctx.String("balance")
	}
	if ctx.IsSet("listen") {
		cfg.Listen = ctx.String("listen")
	}
	if ctx.IsSet("tolerance") {
		cfg.Tolerance = ctx.Float64("tolerance")
	}
	if ctx.IsSet("telemetry-endpoint") {
		cfg.TelemetryEndpoint = ctx.String("telemetry-endpoint")
	}
	return cfg, nil
}

func serve(ctx *cli.Context) error {
	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	client, err := telemetry.Setup(runCtx, appName, cfg.TelemetryEndpoint)
	if err != nil {
		return fmt.Errorf("error setting up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := client.Flush(flushCtx); err != nil {
			slog.Warn("Telemetry flush failed", "error", err)
		}
		client.Shutdown(flushCtx)
	}()

	reg, err := stats.Register(otel.Meter(appName + "/stats"))
	if err != nil {
		slog.Warn("Process stats unavailable", "error", err)
	} else {
		defer reg.Unregister()
	}

	schemes, err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("Loading datasets")
	ds, err := dataset.Load(runCtx, dataset.Paths{
		Boundaries: cfg.Data.Boundaries,
		Companies:  cfg.Data.Companies,
		Potential:  cfg.Data.Potential,
		Balance:    cfg.Data.Balance,
	}, slog.Default())
	if err != nil {
		return err
	}

	d, err := dashboard.New(ds, cfg, schemes, slog.Default())
	if err != nil {
		return err
	}

	return server.Run(runCtx, cfg.Listen, d)
}

func normalize(ctx *cli.Context) error {
	rows, err := normalizeFile(ctx.String("input"), ctx.String("output"), os.Stdout)
	if err != nil {
		return fmt.Errorf("error normalizing %s: %w", ctx.String("input"), err)
	}

	slog.Info("Coordinates normalized", "rows", rows)
	return nil
}

// normalizeFile reads input completely before output is created, so both
// may name the same file. An empty output writes to stdout.
func normalizeFile(input, output string, stdout io.Writer) (int, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	rows, err := dataset.NormalizeCoordinates(bytes.NewReader(data), &buf)
	if err != nil {
		return 0, err
	}

	if output == "" {
		_, err = buf.WriteTo(stdout)
		return rows, err
	}
	return rows, os.WriteFile(output, buf.Bytes(), 0o644)
}
