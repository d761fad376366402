package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-ingest/internal/version"
)

const dateLayout = "2006-01-02"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)

		return 1
	}

	return 0
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "ingest",
		Usage:   "Download and maintain historical equity market data",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the `FILE` describing instruments, granularities and provider",
				Value:   "ingest.yaml",
				Sources: cli.EnvVars("INGEST_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error). Overrides the config file.",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Market data provider (fmp, polygon, alphavantage, yahoo). Overrides the config file.",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "backfill",
				Usage: "Download the full history of one ticker, or of every configured series",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "ticker",
						Aliases: []string{"t"},
						Usage:   "Ticker symbol. Empty means every configured ticker.",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Instrument type directory (etfs, stocks). Looked up in the config when empty.",
					},
					&cli.StringFlag{
						Name:    "granularity",
						Aliases: []string{"g"},
						Usage:   "Bar width (1min ... 1day, or 1m ... 1d). Empty means every configured granularity.",
					},
					&cli.TimestampFlag{
						Name:    "start",
						Aliases: []string{"s"},
						Usage:   "Start date in `YYYY-MM-DD` format. Defaults to backfill.start from the config.",
						Config: cli.TimestampConfig{
							Layouts:  []string{dateLayout},
							Timezone: time.UTC,
						},
					},
					&cli.TimestampFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "End date in `YYYY-MM-DD` format. Defaults to backfill.end from the config, then yesterday.",
						Config: cli.TimestampConfig{
							Layouts:  []string{dateLayout},
							Timezone: time.UTC,
						},
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (json, csv, parquet). Overrides the config file.",
					},
				},
				Action: backfillAction,
			},
			{
				Name:  "daily",
				Usage: "Append one day to every configured series",
				Flags: []cli.Flag{
					&cli.TimestampFlag{
						Name:    "date",
						Aliases: []string{"d"},
						Usage:   "Day to append in `YYYY-MM-DD` format. Defaults to yesterday.",
						Config: cli.TimestampConfig{
							Layouts:  []string{dateLayout},
							Timezone: time.UTC,
						},
					},
				},
				Action: dailyAction,
			},
			{
				Name:  "inspect",
				Usage: "Summarize a series file (json, csv or parquet)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Series `FILE` to inspect",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Also print the bars dated on or after `DATE`",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Also print the bars dated on or before `DATE`",
					},
				},
				Action: inspectAction,
			},
			{
				Name:  "splits",
				Usage: "Download the split history of a ticker",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "ticker",
						Aliases:  []string{"t"},
						Usage:    "Ticker symbol",
						Required: true,
					},
				},
				Action: splitsAction,
			},
			{
				Name:   "providers",
				Usage:  "List the supported market data providers",
				Action: providersAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
		},
	}
}
