// Package main is the Mitsukeru CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsukeru/internal/aggregate"
	"github.com/hyperjump/mitsukeru/internal/analyze"
	"github.com/hyperjump/mitsukeru/internal/cli"
	"github.com/hyperjump/mitsukeru/internal/config"
	"github.com/hyperjump/mitsukeru/internal/models"
	"github.com/hyperjump/mitsukeru/internal/rerank"
	"github.com/hyperjump/mitsukeru/internal/search"
	"github.com/hyperjump/mitsukeru/internal/server"
	"github.com/hyperjump/mitsukeru/internal/suggest"
	"github.com/hyperjump/mitsukeru/internal/vocab"
	"github.com/hyperjump/mitsukeru/internal/watcher"
	"github.com/hyperjump/mitsukeru/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/mitsukeru/config.yaml"
	defaultServerURL  = "http://localhost:8085"
)

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. When neither exists, built-in defaults apply.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "suggest":
		runSuggest()
	case "refresh":
		runRefresh()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("mitsukeru version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: mitsukeru <command> [flags]

Commands:
  server    start the search API server
  search    run a search against a running server
  suggest   fetch autocomplete suggestions from a running server
  refresh   trigger a full index rebuild on a running server
  status    show index state of a running server
  version   print the version
  help      show this help

Run "mitsukeru <command> -h" for command flags.
`)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	// Vocabulary, hot-reloaded when a file is configured.
	registry := vocab.NewRegistry(vocab.Default())
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Suggest.VocabularyPath != "" {
		if err := registry.ReloadFile(cfg.Suggest.VocabularyPath); err != nil {
			logger.Fatal("Failed to load vocabulary", zap.Error(err))
		}
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		vocabWatch := watcher.New(cfg.Suggest.VocabularyPath, func(path string) {
			if err := registry.ReloadFile(path); err != nil {
				logger.Warn("vocabulary reload failed", zap.String("path", path), zap.Error(err))
			} else {
				logger.Info("vocabulary reloaded", zap.String("path", path))
			}
		}, watchOpts...)
		if err := vocabWatch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start vocabulary watcher", zap.Error(err))
		}
		defer vocabWatch.Stop()
	}

	// Trending backend: Redis when configured, curated rotation otherwise.
	var trending suggest.TrendingSource
	if len(cfg.Suggest.RedisAddrs) > 0 {
		redisTrending, err := suggest.NewRedisTrending(suggest.RedisTrendingConfig{
			Addrs:    cfg.Suggest.RedisAddrs,
			Password: cfg.Suggest.RedisPassword,
			Key:      cfg.Suggest.TrendingKey,
		})
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisTrending.Close()
		trending = redisTrending
	}

	sources := make([]aggregate.Source, 0, len(cfg.Content.Sources))
	for name, path := range cfg.Content.Sources {
		sources = append(sources, aggregate.NewFileSource(name, path))
	}

	provider, personalization := buildRerank(cfg, logger)

	engine := search.NewEngine(
		aggregate.NewAggregator(logger, sources...),
		analyze.NewAnalyzer(registry),
		suggest.NewEngine(registry, trending, logger),
		provider,
		personalization,
		&cfg.Search,
		cfg.Rerank.Timeout(),
		logger,
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := engine.BuildIndex(buildCtx); err != nil {
		logger.Warn("initial index build degraded", zap.Error(err))
	}
	buildCancel()
	engine.StartAutoIndexing(watchCtx)

	srv := server.NewServer(engine, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildRerank constructs the configured re-rank provider. "none" disables
// re-ranking entirely; personalized searches then serve the base ranking.
func buildRerank(cfg *config.Config, logger *zap.Logger) (rerank.Provider, rerank.Personalization) {
	switch cfg.Rerank.Provider {
	case "none":
		return nil, nil
	case "openai":
		apiKey := cfg.Rerank.OpenAI.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			logger.Warn("openai re-ranking configured without an api key, falling back to heuristic")
			return rerank.NewHeuristic(cfg.Rerank.Boosts), rerank.NewStaticPersonalization(nil)
		}
		provider := rerank.NewOpenAI(rerank.OpenAIConfig{
			APIKey:  apiKey,
			BaseURL: cfg.Rerank.OpenAI.BaseURL,
			Model:   cfg.Rerank.OpenAI.Model,
		})
		return provider, rerank.NewStaticPersonalization(nil)
	default:
		return rerank.NewHeuristic(cfg.Rerank.Boosts), rerank.NewStaticPersonalization(nil)
	}
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	limit := fs.Int("limit", 10, "number of results")
	docType := fs.String("type", "", "restrict to a document type (product, category, page, vendor, brand, article)")
	userID := fs.String("user", "", "user id for personalized re-ranking")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Fprintln(os.Stderr, "Usage: mitsukeru search [flags] <query>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	endpoint := "/api/v1/search"
	req := server.SearchRequest{Query: queryStr, Type: *docType, Limit: *limit}
	if *userID != "" {
		endpoint = "/api/v1/search/personalized"
		req.UserID = *userID
	}
	response, err := searchViaHTTP(*serverURL, endpoint, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL, endpoint string, req server.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runSuggest() {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	limit := fs.Int("limit", 10, "number of suggestions")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	partial := buildSearchQuery(fs.Args())
	if partial == "" {
		fmt.Fprintln(os.Stderr, "Usage: mitsukeru suggest [flags] <partial query>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	u := fmt.Sprintf("%s/api/v1/suggest?q=%s&limit=%d", *serverURL, url.QueryEscape(partial), *limit)
	resp, err := http.Get(u)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Suggest failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var response models.SuggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSuggestions(os.Stdout, &response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runRefresh() {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Post(*serverURL+"/api/v1/index/refresh", "application/json", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Refresh failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	fmt.Println("Refresh started")
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status struct {
		State           string   `json:"state"`
		Documents       int      `json:"documents"`
		DegradedSources []string `json:"degraded_sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("state:      %s\n", status.State)
		fmt.Printf("documents:  %d\n", status.Documents)
		if len(status.DegradedSources) > 0 {
			fmt.Printf("degraded:   %s\n", strings.Join(status.DegradedSources, ", "))
		}
	}
}
