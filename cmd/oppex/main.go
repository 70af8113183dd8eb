package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/api"
	"github.com/kmezzour/oppex/config"
	"github.com/kmezzour/oppex/export"
	"github.com/kmezzour/oppex/fetch"
	"github.com/kmezzour/oppex/replay"
	"github.com/kmezzour/oppex/scraper"
	"github.com/kmezzour/oppex/store"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(getEnv("OPPEX_CONFIG", "oppex.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	subcommand := os.Args[1]
	args := os.Args[2:]

	switch subcommand {
	case "scrape":
		handleScrape(cfg, args)
	case "manual":
		handleManual(cfg, args)
	case "configs":
		if len(args) < 1 {
			printConfigsUsage()
			os.Exit(1)
		}
		handleConfigs(cfg, args[0], args[1:])
	case "run":
		handleRun(cfg, args)
	case "import":
		handleImport(cfg, args)
	case "export":
		handleExport(cfg, args)
	case "serve":
		handleServe(cfg, args)
	case "replay":
		handleReplay(cfg, args)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

// newEngine picks the fetcher per config and flags.
func newEngine(cfg *config.Config, useBrowser bool) *oppex.Engine {
	if useBrowser || cfg.UseBrowser {
		return oppex.NewEngine(fetch.Render)
	}
	return oppex.NewEngine(fetch.Document)
}

func openStore(cfg *config.Config) *store.Store {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open store: %v\n", err)
		os.Exit(1)
	}
	return st
}

func handleScrape(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	deep := fs.Bool("deep", false, "Follow posting links for full detail records")
	maxJobs := fs.Int("max", 0, "Maximum postings to follow with --deep")
	browser := fs.Bool("browser", false, "Render the page in a headless browser")
	save := fs.Bool("save", false, "Save extracted records to the store")
	asJSON := fs.Bool("json", false, "Print raw JSON instead of a table")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: oppex scrape [flags] <url>\n")
		os.Exit(1)
	}
	url := fs.Arg(0)

	engine := newEngine(cfg, *browser)
	ctx := context.Background()

	var jobs []oppex.JobData
	if *deep {
		result, err := engine.ScrapeDeep(ctx, url, *maxJobs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		jobs = result.Jobs
		fmt.Printf("Found %d postings on %s\n\n", result.Summary.TotalFound, result.Summary.PageTitle)
	} else {
		result, err := engine.Scrape(ctx, url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if result.Listing != nil {
			jobs = result.Listing.Jobs
			fmt.Printf("Listing page: %d items found on %s\n\n",
				result.Listing.Summary.TotalFound, result.Listing.Summary.PageTitle)
		} else {
			jobs = []oppex.JobData{*result.Job}
		}
	}

	if *asJSON {
		printJobsJSON(jobs, url)
	} else {
		printJobsTable(jobs)
	}

	if *save {
		st := openStore(cfg)
		defer st.Close()
		tally, err := oppex.SaveAll(ctx, st, jobs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nSaved %d records (%d failed)\n", tally.Saved, tally.Failed)
	}
}

func handleManual(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("manual", flag.ExitOnError)
	browser := fs.Bool("browser", false, "Render the page in a headless browser")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "Usage: oppex manual [flags] <url> <selector>\n")
		os.Exit(1)
	}
	url, selector := fs.Arg(0), fs.Arg(1)

	engine := newEngine(cfg, *browser)
	matches, err := engine.ManualExtract(context.Background(), url, selector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if oppex.IsSelectorSyntax(err) {
			fmt.Fprintln(os.Stderr, "Try instead:")
			for _, s := range oppex.SyntaxSuggestions(selector) {
				fmt.Fprintf(os.Stderr, "  %s\n", s)
			}
		}
		os.Exit(1)
	}

	if len(matches) == 0 {
		fmt.Println("No elements matched.")
		fmt.Println("Try instead:")
		for _, s := range oppex.NoMatchSuggestions(selector) {
			fmt.Printf("  %s\n", s)
		}
		return
	}

	for i, m := range matches {
		fmt.Printf("%d. %s\n", i+1, m)
	}
}

func handleConfigs(cfg *config.Config, action string, args []string) {
	st := openStore(cfg)
	defer st.Close()

	switch action {
	case "list":
		configs, err := st.ListConfigs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list configs: %v\n", err)
			os.Exit(1)
		}
		printConfigsTable(configs)
	case "add":
		handleConfigsAdd(st, args)
	case "delete":
		if len(args) < 1 {
			fmt.Fprintf(os.Stderr, "Usage: oppex configs delete <config-id>\n")
			os.Exit(1)
		}
		if err := st.DeleteConfig(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted config: %s\n", args[0])
	case "help", "--help", "-h":
		printConfigsUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown configs command: %s\n\n", action)
		printConfigsUsage()
		os.Exit(1)
	}
}

func handleConfigsAdd(st *store.Store, args []string) {
	fs := flag.NewFlagSet("configs add", flag.ExitOnError)
	name := fs.String("name", "", "Config name")
	url := fs.String("url", "", "Target URL")
	itemSelector := fs.String("item", "", "Container selector for repeated items")
	var fieldFlags fieldList
	fs.Var(&fieldFlags, "field", "Field as name=selector (repeatable)")
	fs.Parse(args)

	if *name == "" || *url == "" {
		fmt.Fprintf(os.Stderr, "Error: --name and --url are required\n")
		fs.Usage()
		os.Exit(1)
	}
	if len(fieldFlags.fields) == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one --field is required\n")
		os.Exit(1)
	}
	for _, f := range fieldFlags.fields {
		if err := oppex.ValidateSelector(f.Selector); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	created := scraper.NewScrapeConfig(*name, *url, fieldFlags.fields)
	created.ItemSelector = *itemSelector
	if err := st.CreateConfig(*created); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created config: %s\n", created.ID)
	fmt.Printf("  Name: %s\n", created.Name)
	fmt.Printf("  URL: %s\n", created.URL)
	fmt.Printf("  Fields: %d\n", len(created.Fields))
}

func handleRun(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	format := fs.String("format", "json", "Output format: json, csv or rss")
	browser := fs.Bool("browser", false, "Render the page in a headless browser")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: oppex run [flags] <config-id>\n")
		os.Exit(1)
	}

	st := openStore(cfg)
	defer st.Close()

	scrapeCfg, err := st.GetConfig(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	engine := newEngine(cfg, *browser)
	session := oppex.NewSession(scrapeCfg.URL, scrapeCfg.Fields)
	session.ItemSelector = scrapeCfg.ItemSelector

	if _, err := engine.ExtractWithFields(context.Background(), session); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	valid, hidden := session.ValidItems()
	body, err := export.Items(export.ParseFormat(*format), valid, scrapeCfg.Fields, scrapeCfg.URL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))
	if hidden > 0 {
		fmt.Fprintf(os.Stderr, "%d incomplete items hidden\n", hidden)
	}
}

func handleImport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	save := fs.Bool("save", false, "Save imported records to the store")
	asJSON := fs.Bool("json", false, "Print raw JSON instead of a table")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: oppex import [flags] <feed-url>\n")
		os.Exit(1)
	}
	feedURL := fs.Arg(0)

	ctx := context.Background()
	jobs, err := oppex.ImportFeed(ctx, feedURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to import feed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		printJobsJSON(jobs, feedURL)
	} else {
		printJobsTable(jobs)
	}

	if *save {
		st := openStore(cfg)
		defer st.Close()
		tally, err := oppex.SaveAll(ctx, st, jobs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nSaved %d records (%d failed)\n", tally.Saved, tally.Failed)
	}
}

func handleExport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "json", "Output format: json, csv or rss")
	fs.Parse(args)

	st := openStore(cfg)
	defer st.Close()

	jobs, err := st.ListOpportunities(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list opportunities: %v\n", err)
		os.Exit(1)
	}

	switch export.ParseFormat(*format) {
	case export.FormatCSV:
		fmt.Print(export.JobsCSV(jobs))
	case export.FormatRSS:
		fmt.Print(export.JobsRSS(jobs, export.FeedMeta{
			Title:       "Saved Opportunities",
			Link:        "https://localhost/export",
			Description: "Opportunity records saved from scraped pages",
		}))
	default:
		body, err := export.JobsJSON(jobs, cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(body))
	}
}

func handleServe(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.ListenAddr, "Listen address")
	browser := fs.Bool("browser", false, "Render pages in a headless browser")
	fs.Parse(args)

	st := openStore(cfg)
	defer st.Close()

	server := api.NewServer(newEngine(cfg, *browser), st)
	if err := server.Start(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
		os.Exit(1)
	}
}

func handleReplay(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	interval := fs.String("interval", cfg.ReplayInterval, "Replay interval, cron spec")
	once := fs.Bool("once", false, "Run one cycle and exit")
	browser := fs.Bool("browser", false, "Render pages in a headless browser")
	fs.Parse(args)

	st := openStore(cfg)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := replay.NewService(newEngine(cfg, *browser), st)
	if *once {
		service.RunCycle(ctx)
		return
	}

	if err := service.Start(ctx, *interval); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start replay: %v\n", err)
		os.Exit(1)
	}
	defer service.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("Shutting down.")
}

func printUsage() {
	fmt.Println("oppex - Opportunity extraction engine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  oppex <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  scrape     Extract opportunities from a page")
	fmt.Println("  manual     Run a single CSS selector against a page")
	fmt.Println("  configs    Manage saved scrape configurations")
	fmt.Println("  run        Run a saved config and print its items")
	fmt.Println("  import     Import opportunities from an RSS/Atom feed")
	fmt.Println("  export     Export saved records as JSON, CSV or RSS")
	fmt.Println("  serve      Start the HTTP API server")
	fmt.Println("  replay     Re-run saved configs on a schedule")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  OPPEX_CONFIG       Path to the YAML config file (default: oppex.yaml)")
	fmt.Println("  OPPEX_DB_PATH      Path to the SQLite database")
	fmt.Println("  OPPEX_LISTEN_ADDR  API server listen address")
	fmt.Println("  OPPEX_LOG_LEVEL    Log level (debug, info, warn, error)")
}

func printConfigsUsage() {
	fmt.Println("oppex configs - Manage saved scrape configurations")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  oppex configs <action> [arguments]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  list       List all configs")
	fmt.Println("  add        Add a new config")
	fmt.Println("  delete     Delete a config")
	fmt.Println("  help       Show this help message")
}
