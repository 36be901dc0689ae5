package cli

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"aspectwatch/internal/core/config"
)

const defaultConfigPath = "./aspectwatch.toml"

type cliOptions struct {
	configPath  string
	once        bool
	ui          bool
	at          string
	filter      string
	history     bool
	historyList bool
	since       string
	reportTSV   string
	reportMD    string
	verbose     bool
	version     bool
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("aspectwatch", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.once, "once", false, "Compute once, print the result and exit")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode")
	fs.StringVar(&opts.at, "at", "", "Moment to compute (RFC3339 or YYYY-MM-DD[THH:MM[:SS]], no offset = UTC)")
	fs.StringVar(&opts.filter, "filter", "", "Only show aspects involving bodies matching this name or glob")
	fs.BoolVar(&opts.history, "history", false, "Journal every recomputation to the history database")
	fs.BoolVar(&opts.historyList, "history-list", false, "Print journaled snapshots and exit")
	fs.StringVar(&opts.since, "since", "", "Only list snapshots recorded at/after this timestamp (with --history-list)")
	fs.StringVar(&opts.reportTSV, "report-tsv", "", "Write a TSV report to this path")
	fs.StringVar(&opts.reportMD, "report-md", "", "Write a Markdown report to this path")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.once && opts.ui {
		return cliOptions{}, fmt.Errorf("--once and --ui cannot be used together")
	}
	if opts.since != "" && !opts.historyList {
		return cliOptions{}, fmt.Errorf("--since requires --history-list")
	}
	return opts, nil
}

// applyFlagOverrides layers command line settings over a loaded config. It is
// reapplied after every reload so flags keep precedence over the file.
func applyFlagOverrides(cfg *config.Config, opts cliOptions) {
	if opts.at != "" {
		cfg.Session.Moment = opts.at
	}
	if opts.filter != "" {
		cfg.Session.Filter = opts.filter
	}
	if opts.history || opts.historyList {
		cfg.History.Enabled = true
	}
	if opts.reportTSV != "" {
		cfg.Output.TSV = opts.reportTSV
	}
	if opts.reportMD != "" {
		cfg.Output.Markdown = opts.reportMD
	}
}

func parseSince(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since value %q (expected RFC3339 or YYYY-MM-DD)", value)
}
