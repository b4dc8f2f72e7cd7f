package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/bot"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/config"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/display"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/fetcher"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/filter"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/metrics"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/parser"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/scheduler"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/scraper"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/sheets"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stderr)
}

// flags holds the command line; only flags given explicitly override the config file
type flags struct {
	configPath  string
	keyword     string
	location    string
	limit       int
	headless    bool
	engine      string
	sort        string
	minRating   float64
	out         string
	snapshot    string
	spreadsheet string
	credentials string
	logLevel    string
	botMode     bool
	metricsAddr string
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&f.keyword, "keyword", "", "Business type to search for, e.g. \"Coffee Shop\"")
	flag.StringVar(&f.location, "location", "", "Area to search in, e.g. \"London, UK\"")
	flag.IntVar(&f.limit, "limit", 0, fmt.Sprintf("Maximum number of leads (%d-%d)", models.MinLimit, models.MaxLimit))
	flag.BoolVar(&f.headless, "headless", false, "Run the browser without a window")
	flag.StringVar(&f.engine, "engine", "", "Browser driver: rod or chromedp")
	flag.StringVar(&f.sort, "sort", "", "Result order: default or rating")
	flag.Float64Var(&f.minRating, "min-rating", 0, "Drop leads rated below this value")
	flag.StringVar(&f.out, "out", "", "Output .xlsx file")
	flag.StringVar(&f.snapshot, "snapshot", "", "Parse a saved results page (path or URL) instead of driving a browser")
	flag.StringVar(&f.spreadsheet, "spreadsheet", "", "Google Sheets URL to add a results tab to")
	flag.StringVar(&f.credentials, "credentials", "", "Path to Google service account credentials JSON file (or use GOOGLE_SHEETS_CREDENTIALS env var)")
	flag.StringVar(&f.logLevel, "loglevel", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&f.botMode, "bot", false, "Run as a Telegram bot")
	flag.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address in bot mode, e.g. :9090")
	flag.Parse()

	level, err := log.ParseLevel(f.logLevel)
	if err != nil {
		log.Fatalf("Invalid log level %q: %v", f.logLevel, err)
	}
	log.SetLevel(level)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.botMode {
		err = runBotMode(ctx, cfg)
	} else {
		err = runCLIMode(ctx, cfg, f.snapshot)
	}
	if err != nil {
		stop()
		log.Fatal(err)
	}
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cfg *config.Config, f flags) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "keyword":
			cfg.Search.Keyword = f.keyword
		case "location":
			cfg.Search.Location = f.location
		case "limit":
			cfg.Search.Limit = f.limit
		case "headless":
			cfg.Search.Headless = f.headless
		case "engine":
			cfg.Browser.Engine = f.engine
		case "sort":
			cfg.Output.Sort = f.sort
		case "min-rating":
			cfg.Output.MinRating = f.minRating
		case "out":
			cfg.Output.File = f.out
		case "spreadsheet":
			cfg.Output.SpreadsheetURL = f.spreadsheet
		case "credentials":
			cfg.Output.CredentialsPath = f.credentials
		case "metrics-addr":
			cfg.Metrics.Addr = f.metricsAddr
		}
	})
}

// runCLIMode runs one search and writes the results to the terminal and disk
func runCLIMode(ctx context.Context, cfg *config.Config, snapshot string) error {
	req := cfg.SearchRequest()

	var (
		leads []models.Lead
		err   error
	)
	if snapshot != "" {
		leads, err = parseSnapshot(cfg, snapshot, req.Limit)
		if err != nil {
			return err
		}
	} else {
		extractor := scraper.NewExtractor(
			scraper.Launcher(cfg.Browser.Engine),
			scraper.NewBrowserOptions(cfg),
			scraper.NewOptions(cfg),
			display.NewConsoleProgress(nil),
		)
		leads, err = extractor.Run(ctx, req)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Extraction failed. Check your connection and try again.")
			return err
		}
	}

	found := len(leads)
	leads = filter.NewFilter(cfg.Output.MinRating, cfg.Output.Sort).Apply(leads)

	fmt.Printf("Found %d leads for %s (%d after filtering)\n\n", found, req.Query(), len(leads))
	if err := display.RenderTable(os.Stdout, leads); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	if len(leads) == 0 {
		return nil
	}

	if err := sheets.SaveXLSX(cfg.Output.File, leads); err != nil {
		return err
	}
	fmt.Printf("\nSaved %d leads to %s\n", len(leads), cfg.Output.File)

	if cfg.Output.SpreadsheetURL != "" {
		writer, err := newSheetWriter(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Google Sheets writer")
			return nil
		}
		sheetName := sheets.SheetName("CLI", time.Now())
		_, sheetID, err := writer.CreateSheetAndWriteLeads(ctx, sheetName, req.Query(), leads)
		if err != nil {
			log.WithError(err).Warn("Failed to write to Google Sheets")
			return nil
		}
		fmt.Printf("Google Sheets: %s\n", writer.SheetURL(sheetID))
	}
	return nil
}

// parseSnapshot reads leads from a saved results page
func parseSnapshot(cfg *config.Config, source string, limit int) ([]models.Lead, error) {
	html, err := fetcher.NewSnapshotFetcher(cfg.Browser.UserAgent, cfg.Navigation.PageTimeout).Fetch(source)
	if err != nil {
		return nil, err
	}
	leads, err := parser.NewParser().ParseHTML(html, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	log.WithFields(log.Fields{
		"source": source,
		"leads":  len(leads),
	}).Info("Parsed snapshot")
	return leads, nil
}

func newSheetWriter(ctx context.Context, cfg *config.Config) (*sheets.Writer, error) {
	spreadsheetID := sheets.ExtractSpreadsheetID(cfg.Output.SpreadsheetURL)
	if spreadsheetID == "" {
		return nil, fmt.Errorf("could not extract spreadsheet ID from URL: %s", cfg.Output.SpreadsheetURL)
	}
	return sheets.NewWriter(ctx, spreadsheetID, cfg.Output.CredentialsPath)
}

// runBotMode serves searches over Telegram until ctx is cancelled
func runBotMode(ctx context.Context, cfg *config.Config) error {
	if cfg.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to initialize bot: %w", err)
	}
	log.WithField("account", api.Self.UserName).Info("Authorized on Telegram")

	var sheetWriter scheduler.SheetWriter
	if cfg.Output.SpreadsheetURL != "" {
		writer, err := newSheetWriter(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Google Sheets export disabled")
		} else {
			sheetWriter = writer
		}
	}

	extractor := scraper.NewExtractor(
		scraper.Launcher(cfg.Browser.Engine),
		scraper.NewBrowserOptions(cfg),
		scraper.NewOptions(cfg),
		nil,
	)
	run := func(ctx context.Context, req models.SearchRequest, progress scraper.Progress) ([]models.Lead, error) {
		return extractor.WithProgress(progress).Run(ctx, req)
	}

	sched := scheduler.NewScheduler(api, run, sheetWriter, scheduler.Options{
		QueueSize:    cfg.Telegram.QueueSize,
		EditInterval: cfg.Telegram.EditInterval,
		MinRating:    cfg.Output.MinRating,
		FileName:     cfg.Output.File,
	})
	b := bot.New(api, sched, cfg)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := api.GetUpdatesChan(updateConfig)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		return b.Run(gctx, updates)
	})
	g.Go(func() error {
		<-gctx.Done()
		api.StopReceivingUpdates()
		return nil
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return metrics.NewServer(cfg.Metrics.Addr).Run(gctx)
		})
	}

	log.Info("Bot is running")
	return g.Wait()
}
