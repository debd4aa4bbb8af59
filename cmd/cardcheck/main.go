// Command cardcheck prints the 5/24 status of the card history from the
// configured backend: how many cards were opened in the trailing window
// and the first month the count drops below the threshold.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"spendtrack/internal/analytics"
	"spendtrack/internal/backend"
	"spendtrack/internal/cli"
	"spendtrack/internal/core"
	"spendtrack/internal/loader"
	"spendtrack/internal/log"
)

func main() {
	ref := core.MonthOf(time.Now())
	flag.TextVar(&ref, "ref", ref, "reference month (YYYY-MM)")
	asJSON := flag.Bool("json", false, "print the summary as JSON")
	timeout := flag.Duration("timeout", time.Minute, "how long to wait for the workbook")
	flag.Parse()

	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	layout, err := cfg.LoadLayout()
	if err != nil {
		logger.Error("Failed to load workbook layout", log.FieldError, err)
		os.Exit(1)
	}
	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to create backend config", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	cards, _, err := loader.New(result.Reader, layout, logger).Cards(ctx)
	if err != nil {
		logger.Error("Failed to load card history", log.FieldError, err)
		os.Exit(1)
	}

	summary := analytics.SummarizeCards(cards, ref)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			logger.Error("Failed to encode summary", log.FieldError, err)
			os.Exit(1)
		}
		return
	}
	if err := printSummary(os.Stdout, summary); err != nil {
		logger.Error("Failed to print summary", log.FieldError, err)
		os.Exit(1)
	}
}

func printSummary(out io.Writer, s analytics.CardSummary) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Reference month\t%s\n", s.Reference)
	fmt.Fprintf(w, "Cards recorded\t%d (%d open)\n", s.Total, s.Open)
	fmt.Fprintf(w, "Opened in last %d months\t%d\n", analytics.CardWindowMonths, s.Current)
	if s.Recorded != nil {
		fmt.Fprintf(w, "Sheet count\t%d\n", *s.Recorded)
	}
	fmt.Fprintf(w, "Below %d by\t%s\n", analytics.CardThreshold, s.BelowLabel())
	if s.AverageMonthsOpen.Valid {
		fmt.Fprintf(w, "Average months open\t%s\n", s.AverageMonthsOpen.Decimal.StringFixed(1))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Month\tCount")
	for _, p := range s.Schedule {
		fmt.Fprintf(w, "%s\t%d\n", p.Month, p.Count)
	}
	return w.Flush()
}
