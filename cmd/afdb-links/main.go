package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"afdb-links/pkg/batch"
	"afdb-links/pkg/config"
	"afdb-links/pkg/csvio"
	"afdb-links/pkg/export"
	"afdb-links/pkg/extract"
	"afdb-links/pkg/fetch"
	"afdb-links/pkg/harvest"
	"afdb-links/pkg/storage"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		runExtract(os.Args[2:])
	case "harvest":
		runHarvest(os.Args[2:])
	case "clean-csv":
		runCleanCSV(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "version":
		fmt.Printf("afdb-links %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `afdb-links - AfDB project page extractor and document harvester

Usage:
  afdb-links <command> [options]

Commands:
  extract     Extract project sections from MapAfrica by identifier
  harvest     Crawl AfDB document listings and resolve PDF links
  clean-csv   Strip the methodology row from a corpus CSV
  validate    Validate configuration file
  version     Show version info

Run 'afdb-links <command> -h' for command-specific help.`)
}

// loadConfig loads the optional YAML config. An empty path yields a
// default configuration.
func loadConfig(path string) (*config.AppConfig, error) {
	var cfg config.AppConfig
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// setupLogger builds the root logger with the requested level.
func setupLogger(logLevelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
	}
	return log
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(log *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal %v, shutting down...", sig)
		cancel()
	}()
	return ctx, cancel
}

// runExtract handles the extract subcommand.
func runExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	projectsFile := fs.String("projects", "", "Input CSV with project identifiers (required)")
	idColumn := fs.String("id-col", "", "Header name of the identifier column")
	outFile := fs.String("out", "mapafrica_results.csv", "Output CSV path")
	delay := fs.Duration("delay", 0, "Delay between rows (overrides config)")
	timeout := fs.Duration("timeout", 0, "Per-request timeout (overrides config)")
	baseURL := fs.String("base-url", "", "Portal base URL (overrides config)")
	maxRows := fs.Int("max-rows", 0, "Process at most N identifiers (0 = all)")
	useBrowser := fs.Bool("browser", false, "Fetch with a headless browser instead of plain HTTP")
	resume := fs.Bool("resume", false, "Skip identifiers completed in a previous run and append to the output")
	fresh := fs.Bool("fresh", false, "Discard previous run state and overwrite the output")
	dumpDir := fs.String("dump-dir", "", "Also write per-project markdown dumps into this directory")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	configFile := fs.String("config", "", "Path to optional YAML config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: afdb-links extract [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  afdb-links extract -projects afdb_clean.csv\n")
		fmt.Fprintf(os.Stderr, "  afdb-links extract -projects afdb_clean.csv -browser -resume\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *projectsFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -projects is required")
		fs.Usage()
		os.Exit(1)
	}
	if *resume && *fresh {
		fmt.Fprintln(os.Stderr, "Error: -resume and -fresh are mutually exclusive")
		os.Exit(1)
	}

	log := setupLogger(*logLevel)

	appCfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	// Flags override config
	if *baseURL != "" {
		appCfg.Extract.BaseURL = *baseURL
	}
	if *delay > 0 {
		appCfg.Extract.Delay = config.Duration(*delay)
	}
	if *timeout > 0 {
		appCfg.Extract.Timeout = config.Duration(*timeout)
	}
	if *idColumn != "" {
		appCfg.Extract.IDColumn = *idColumn
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	identifiers, err := csvio.ReadIdentifiers(*projectsFile, appCfg.Extract.IDColumn, log)
	if err != nil {
		log.Fatalf("Reading identifiers: %v", err)
	}
	if len(identifiers) == 0 {
		log.Fatal("Input CSV contains no identifiers")
	}

	uaProvider := fetch.NewUserAgentProvider(appCfg.Extract.UserAgent)
	client := fetch.NewClient(appCfg.HTTPClientSettings, fetch.ClientOptions{
		Timeout:           appCfg.Extract.Timeout.Std(),
		MaxRetries:        appCfg.MaxRetries,
		InitialRetryDelay: appCfg.InitialRetryDelay.Std(),
		MaxRetryDelay:     appCfg.MaxRetryDelay.Std(),
		UserAgents:        uaProvider,
	}, log)

	var fetcher fetch.Fetcher = fetch.NewHTTPFetcher(client, log)
	if *useBrowser {
		browser := fetch.NewBrowserFetcher(ctx, uaProvider.Next(), appCfg.Extract.Timeout.Std(), log)
		defer browser.Close()
		fetcher = browser
	}

	store, err := storage.NewBadgerStore(appCfg.Extract.StateDir, *resume, log.WithField("component", "storage"))
	if err != nil {
		log.Fatalf("Opening state store: %v", err)
	}
	defer store.Close()

	writer, err := csvio.NewRecordWriter(*outFile, *resume, log)
	if err != nil {
		log.Fatalf("Opening output CSV: %v", err)
	}
	defer writer.Close()

	var exporter *export.MarkdownExporter
	if *dumpDir != "" {
		exporter, err = export.NewMarkdownExporter(*dumpDir, log)
		if err != nil {
			log.Fatalf("Preparing dump directory: %v", err)
		}
	}

	builder := extract.NewRowBuilder(fetcher, appCfg.Extract.BaseURL, appCfg.Extract.URLTemplates, log)
	runner := batch.NewRunner(builder, writer, exporter, store, log)

	summary, err := runner.Run(ctx, identifiers, batch.Options{
		Delay:   appCfg.Extract.Delay.Std(),
		MaxRows: *maxRows,
		Resume:  *resume,
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("Run failed: %v", err)
	}

	log.Infof("Done: %d processed (%d ok, %d not_found, %d error), %d skipped",
		summary.Processed, summary.OK, summary.NotFound, summary.Errors, summary.Skipped)
}

// runHarvest handles the harvest subcommand.
func runHarvest(args []string) {
	fs := flag.NewFlagSet("harvest", flag.ExitOnError)
	seeds := fs.String("seeds", "", "Comma-separated seed URLs (defaults to the AfDB document listings)")
	sector := fs.String("sector", "", "Target sector to keep (overrides config)")
	outDir := fs.String("out-dir", "", "Output directory for the manifest (overrides config)")
	maxPages := fs.Int("max-pages", 0, "Max listing pages per seed (overrides config)")
	rateLimit := fs.Duration("rate-limit", 0, "Delay between requests to a host (overrides config)")
	fresh := fs.Bool("fresh", false, "Overwrite the manifest instead of appending")
	noRobots := fs.Bool("no-robots", false, "Skip robots.txt checks")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	configFile := fs.String("config", "", "Path to optional YAML config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: afdb-links harvest [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  afdb-links harvest\n")
		fmt.Fprintf(os.Stderr, "  afdb-links harvest -sector \"Energy\" -max-pages 10 -fresh\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)

	appCfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}

	// Flags override config
	if *seeds != "" {
		var list []string
		for _, s := range strings.Split(*seeds, ",") {
			if s = strings.TrimSpace(s); s != "" {
				list = append(list, s)
			}
		}
		appCfg.Harvest.Seeds = list
	}
	if *sector != "" {
		appCfg.Harvest.Sector = *sector
	}
	if *outDir != "" {
		appCfg.Harvest.OutDir = *outDir
	}
	if *maxPages > 0 {
		appCfg.Harvest.MaxPages = *maxPages
	}
	if *rateLimit > 0 {
		appCfg.Harvest.RateLimit = config.Duration(*rateLimit)
	}
	if *noRobots {
		f := false
		appCfg.Harvest.RespectRobots = &f
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	uaProvider := fetch.NewUserAgentProvider(appCfg.Harvest.UserAgent)
	client := fetch.NewClient(appCfg.HTTPClientSettings, fetch.ClientOptions{
		MaxRetries:        appCfg.MaxRetries,
		InitialRetryDelay: appCfg.InitialRetryDelay.Std(),
		MaxRetryDelay:     appCfg.MaxRetryDelay.Std(),
		UserAgents:        uaProvider,
	}, log)
	fetcher := fetch.NewHTTPFetcher(client, log)
	limiter := fetch.NewRateLimiter(appCfg.Harvest.RateLimit.Std(), log)

	var robots *fetch.RobotsGate
	if config.GetEffectiveRespectRobots(appCfg.Harvest) {
		robots = fetch.NewRobotsGate(client, log)
	}

	harvester := harvest.NewHarvester(fetcher, client, robots, limiter, appCfg.Harvest, log)
	records, err := harvester.Run(ctx)
	if err != nil && ctx.Err() == nil {
		log.Fatalf("Harvest failed: %v", err)
	}

	if err := harvest.WriteManifest(appCfg.Harvest.OutDir, *fresh, records, log); err != nil {
		log.Fatalf("Writing manifest: %v", err)
	}
}

// runCleanCSV handles the clean-csv subcommand.
func runCleanCSV(args []string) {
	fs := flag.NewFlagSet("clean-csv", flag.ExitOnError)
	inFile := fs.String("in", "", "Input corpus CSV (required)")
	outFile := fs.String("out", "afdb_clean.csv", "Output CSV path")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: afdb-links clean-csv -in <file> [-out <file>]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -in is required")
		fs.Usage()
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	if err := csvio.Clean(*inFile, *outFile, log); err != nil {
		log.Fatalf("Cleaning CSV: %v", err)
	}
}

// runValidate handles the validate subcommand.
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: afdb-links validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doValidate(*configFile, os.Stdout, os.Stderr))
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "Configuration valid.")
	return 0
}
