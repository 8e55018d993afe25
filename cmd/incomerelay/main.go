package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/mattjoyce/incomerelay/internal/api"
	"github.com/mattjoyce/incomerelay/internal/config"
	"github.com/mattjoyce/incomerelay/internal/dispatch"
	"github.com/mattjoyce/incomerelay/internal/events"
	"github.com/mattjoyce/incomerelay/internal/journal"
	"github.com/mattjoyce/incomerelay/internal/lock"
	"github.com/mattjoyce/incomerelay/internal/log"
	"github.com/mattjoyce/incomerelay/internal/processor"
	"github.com/mattjoyce/incomerelay/internal/queue"
	"github.com/mattjoyce/incomerelay/internal/report"
	"github.com/mattjoyce/incomerelay/internal/status"
	"github.com/mattjoyce/incomerelay/internal/webhook"
)

var (
	version   = api.Version
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		return runStart(nil)
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "start":
		return runStart(args)
	case "parse":
		return runParse(args, os.Stdout)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		if strings.HasPrefix(cmd, "-") {
			return runStart(cliArgs)
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: incomerelay version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("incomerelay %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if commit != "" {
		info.Commit = shortenCommit(commit)
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}
	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`incomerelay - Income statement webhook relay

Usage:
  incomerelay [command] [flags]

Commands:
  start             Run the HTTP service in the foreground (default)
  parse <file.csv>  Parse a statement and print the report JSON
  version           Show version information
  help              Show this help message

Start flags:
  --env-file PATH   dotenv file to seed the environment from (default .env, or $ENV_FILE)

Parse flags:
  --rules PATH      account-type rule table (default embedded, or $ACCOUNT_RULES_PATH)
  --batch           wrap the report in the downstream batch envelope

Environment:
  PORT, LOVABLE_WEBHOOK_URL, INCOME_STATEMENT_WEBHOOK_TOKEN, MAILGUN_WEBHOOK_SECRET,
  LOG_LEVEL, LOG_FORMAT, DELIVERY_TIMEOUT, WORKER_COUNT, QUEUE_CAPACITY,
  DRAIN_TIMEOUT, MAX_ATTACHMENT_SIZE, REPLAY_TTL, RATE_LIMIT_RPS,
  RATE_LIMIT_BURST, STATE_PATH, ACCOUNT_RULES_PATH, ENV_FILE
`)
}

// runParse prints the parsed report for a local CSV file.
func runParse(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	rulesPath := fs.String("rules", os.Getenv(config.EnvAccountRulesPath), "Account-type rule table (YAML)")
	asBatch := fs.Bool("batch", false, "Wrap the report in the downstream batch envelope")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: incomerelay parse [--rules PATH] [--batch] <file.csv>")
		return 1
	}

	rules, err := report.LoadRules(*rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load rules: %v\n", err)
		return 1
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		return 1
	}

	now := time.Now()
	rep, err := report.NewParser(rules).Parse(data, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		return 1
	}

	var v any = rep
	if *asBatch {
		v = dispatch.NewBatch(dispatch.BatchID(now), dispatch.SourceDirectUpload, rep)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render report: %v\n", err)
		return 1
	}
	return 0
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	envFile := fs.String("env-file", envOr(config.EnvEnvFile, ".env"), "dotenv file to seed the environment from")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.LogLevel, cfg.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("incomerelay starting", "version", version, "port", cfg.Port)
	for _, msg := range cfg.Warnings {
		logger.Warn("configuration value ignored", "reason", msg)
	}
	for _, name := range cfg.Missing() {
		logger.Warn("required environment variable not set", "name", name)
	}

	rules, err := report.LoadRules(cfg.AccountRulesPath)
	if err != nil {
		logger.Error("failed to load account rules", "path", cfg.AccountRulesPath, "error", err)
		return 1
	}
	logger.Info("account rules loaded", "version", rules.Version, "digest", rules.Digest())

	var jnl *journal.Journal
	if cfg.StatePath != "" {
		pidLock, err := lock.Acquire(lock.PathFor(cfg.StatePath))
		if err != nil {
			logger.Error("failed to acquire PID lock (another instance may be running)", "path", lock.PathFor(cfg.StatePath), "error", err)
			return 1
		}
		defer pidLock.Release()

		jnl, err = journal.Open(context.Background(), cfg.StatePath)
		if err != nil {
			logger.Error("failed to open journal", "path", cfg.StatePath, "error", err)
			return 1
		}
		defer jnl.Close()

		n, err := jnl.MarkAbandoned(context.Background())
		if err != nil {
			logger.Error("failed to recover journal", "error", err)
			return 1
		}
		logger.Info("journal opened", "path", cfg.StatePath, "abandoned", n)
	}

	parser := report.NewParser(rules)
	tracker := status.New()
	hub := events.NewHub(256)
	q := queue.New(cfg.QueueCapacity, cfg.WorkerCount)

	deps := processor.Deps{
		Parser: parser,
		Sender: dispatch.NewSender(cfg.DownstreamURL, cfg.DownstreamToken, cfg.DeliveryTimeout),
		Status: tracker,
		Queue:  q,
		Events: hub,
	}
	apiDeps := api.Deps{Status: tracker, Queue: q, Events: hub}
	if jnl != nil {
		deps.Journal = jnl
		apiDeps.Batches = jnl
	}
	proc := processor.New(deps)

	coord := webhook.NewCoordinator(
		webhook.NewVerifier(cfg.MailgunSecret),
		webhook.NewReplayGuard(cfg.ReplayTTL),
		proc,
		cfg.MaxAttachmentSize,
	)
	coord.SetPublisher(hub)
	apiDeps.Ingestor = coord

	apiServer := api.New(api.Config{
		Listen:         cfg.ListenAddr(),
		Configured:     cfg.Configured(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Rules:          api.RulesInfo{Version: rules.Version, Digest: rules.Digest()},
	}, apiDeps, log.WithComponent("api"))

	// Workers are not tied to the signal context; Stop cancels them.
	q.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start(ctx)
	}()

	logger.Info("incomerelay running (press Ctrl+C to stop)")

	exit := 0
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("api server shutdown", "error", err)
			exit = 1
		}
	case err := <-errCh:
		logger.Error("component failed", "error", fmt.Errorf("api: %w", err))
		cancel()
		exit = 1
	}

	drainCtx, stop := context.WithTimeout(context.Background(), cfg.DrainTimeout)
	defer stop()
	stats := q.Stats()
	logger.Info("draining worker pool", "queued", stats.Length, "in_flight", stats.InFlight, "timeout", cfg.DrainTimeout.String())
	if err := q.Stop(drainCtx); err != nil {
		logger.Error("worker pool did not drain", "error", err)
		exit = 1
	}
	hub.Close()

	logger.Info("incomerelay stopped")
	return exit
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
