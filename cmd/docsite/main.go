package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/data"
	"github.com/chaijs/docsite/pkg/fetch"
	"github.com/chaijs/docsite/pkg/site"
	"github.com/chaijs/docsite/pkg/storage"
	"github.com/chaijs/docsite/pkg/toc"
	"github.com/chaijs/docsite/pkg/watch"
)

const version = "0.4.0"

// cacheGCInterval is how often the fetch cache value log is compacted
const cacheGCInterval = 10 * time.Minute

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "outline":
		runOutline(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "version":
		fmt.Printf("docsite %s\n", version)
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
	fmt.Fprintln(w, `docsite - Static documentation site builder

Usage:
  docsite <command> [options]

Commands:
  build       Render pages and copy assets into the output directory
  watch       Rebuild whenever sources change
  validate    Validate configuration file
  outline     Print the heading outline of an HTML file
  mcp-server  Start MCP server for AI tool integration
  version     Show version info

Run 'docsite <command> -h' for command-specific help.`)
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
		log.Debugf("Setting log level to: %s", level.String())
	}

	return log
}

// loadAndValidateConfig loads the config file and applies defaults.
func loadAndValidateConfig(configFile string) (*config.AppConfig, []string, error) {
	appCfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	warnings, err := appCfg.Validate()
	if err != nil {
		return nil, warnings, err
	}
	return appCfg, warnings, nil
}

// pluginSource owns the persistent fetch cache backing the plugin list
type pluginSource struct {
	store   *storage.BadgerStore
	fetcher *fetch.CachedFetcher
}

// openPluginSource opens the fetch cache under the state dir. It returns nil
// when plugins are disabled.
func openPluginSource(ctx context.Context, appCfg *config.AppConfig, log *logrus.Logger) (*pluginSource, error) {
	if !appCfg.Plugins.Enabled {
		return nil, nil
	}
	entry := log.WithField("component", "fetch")
	store, err := storage.NewBadgerStore(appCfg.StateDir, entry)
	if err != nil {
		return nil, err
	}
	go store.RunGC(ctx, cacheGCInterval)

	client := fetch.NewClient(appCfg.HTTPClientSettings, entry)
	fetcher := fetch.NewFetcher(client, fetch.PolicyFromConfig(appCfg), entry)
	return &pluginSource{store: store, fetcher: fetch.NewCachedFetcher(fetcher, store, entry)}, nil
}

// loader returns the global data loader, with plugins when a source is open
func (p *pluginSource) loader(appCfg *config.AppConfig, log *logrus.Logger) *data.Loader {
	if p == nil {
		return data.NewLoader(appCfg, nil, log.WithField("component", "main"))
	}
	return data.NewLoader(appCfg, p.fetcher, log.WithField("component", "main"))
}

func (p *pluginSource) Close() error {
	if p == nil {
		return nil
	}
	return p.store.Close()
}

// runBuild handles the build subcommand
func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configFile := fs.String("config", "docsite.yaml", "Path to config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	clean := fs.Bool("clean", false, "Remove the output directory before building")
	refresh := fs.Bool("refresh", false, "Discard cached registry responses before building")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite build [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  docsite build -config docsite.yaml\n")
		fmt.Fprintf(os.Stderr, "  docsite build -clean -refresh\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := doBuild(ctx, *configFile, *logLevel, *clean, *refresh, os.Stderr)
	stop()
	os.Exit(exitCode)
}

// doBuild runs one site build. Returns exit code (0 = success, 1 = error).
func doBuild(ctx context.Context, configPath, logLevel string, clean, refresh bool, stderr io.Writer) int {
	log := setupLogger(logLevel, stderr)

	log.Infof("Loading configuration from %s", configPath)
	appCfg, warnings, err := loadAndValidateConfig(configPath)
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Errorf("Config error: %v", err)
		return 1
	}
	if clean {
		appCfg.CleanOutput = true
	}

	plugins, err := openPluginSource(ctx, appCfg, log)
	if err != nil {
		log.Errorf("Failed to open fetch cache: %v", err)
		return 1
	}
	defer func() {
		if err := plugins.Close(); err != nil {
			log.Warnf("Failed to close fetch cache: %v", err)
		}
	}()
	if refresh && plugins != nil {
		if err := plugins.fetcher.Purge(); err != nil {
			log.Warnf("Failed to purge fetch cache: %v", err)
		}
	}

	builder := site.NewBuilder(appCfg, plugins.loader(appCfg, log), log.WithField("component", "main"))
	summary, err := builder.Build(ctx)
	if err != nil {
		log.Errorf("Build failed: %v", err)
		if summary != nil {
			summary.Log(log.WithField("component", "main"))
		}
		return 1
	}
	return 0
}

// runWatch handles the watch subcommand
func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configFile := fs.String("config", "docsite.yaml", "Path to config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	debounce := fs.Duration("debounce", 0, "Quiet period after a change before rebuilding (overrides watch.debounce)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite watch [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := doWatch(ctx, *configFile, *logLevel, *debounce, os.Stderr)
	stop()
	os.Exit(exitCode)
}

// doWatch rebuilds the site on source changes until ctx is cancelled.
func doWatch(ctx context.Context, configPath, logLevel string, debounce time.Duration, stderr io.Writer) int {
	log := setupLogger(logLevel, stderr)

	appCfg, warnings, err := loadAndValidateConfig(configPath)
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Errorf("Config error: %v", err)
		return 1
	}
	if debounce > 0 {
		appCfg.Watch.Debounce = debounce
	}

	plugins, err := openPluginSource(ctx, appCfg, log)
	if err != nil {
		log.Errorf("Failed to open fetch cache: %v", err)
		return 1
	}
	defer plugins.Close()

	builder := site.NewBuilder(appCfg, plugins.loader(appCfg, log), log.WithField("component", "main"))
	build := func(ctx context.Context) (int, error) {
		summary, err := builder.Build(ctx)
		if summary == nil {
			return 0, err
		}
		return summary.Pages, err
	}

	if err := watch.NewWatcher(appCfg, build, log.WithField("component", "main")).Run(ctx); err != nil {
		log.Errorf("Watch failed: %v", err)
		return 1
	}
	return 0
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "docsite.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doValidate(*configFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, warnings, err := loadAndValidateConfig(configPath)
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "OK: %s -> %s (%d passthrough mapping(s))\n", appCfg.InputDir, appCfg.OutputDir, len(appCfg.Passthrough))
	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runOutline handles the outline subcommand
func runOutline(args []string) {
	fs := flag.NewFlagSet("outline", flag.ExitOnError)
	summary := fs.String("summary", toc.DefaultSummary, "Label of the navigation container")
	asJSON := fs.Bool("json", false, "Print the outline as JSON instead of nav markup")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite outline [options] <file.html>\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	exitCode := doOutline(fs.Arg(0), *summary, *asJSON, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doOutline prints the outline of an HTML file as nav markup or JSON.
func doOutline(path, summary string, asJSON bool, stdout, stderr io.Writer) int {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	outline, err := toc.Extract(string(content))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outline); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	nav, err := toc.RenderWithSummary(outline, summary)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, nav)
	return 0
}
