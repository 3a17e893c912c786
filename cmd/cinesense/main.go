// Package main is the CineSense CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cinesense/cinesense/internal/catalog"
	"github.com/cinesense/cinesense/internal/cluster"
	"github.com/cinesense/cinesense/internal/config"
	"github.com/cinesense/cinesense/internal/embedding"
	"github.com/cinesense/cinesense/internal/enrich"
	"github.com/cinesense/cinesense/internal/ingest"
	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/internal/ranking"
	"github.com/cinesense/cinesense/internal/recommend"
	"github.com/cinesense/cinesense/internal/server"
	"github.com/cinesense/cinesense/internal/storage"
	"github.com/cinesense/cinesense/internal/watcher"
	"github.com/cinesense/cinesense/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/cinesense/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
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
	case "recommend":
		runRecommend()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("cinesense version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`CineSense - hybrid content recommender

Usage:
  cinesense <command> [flags]

Commands:
  server      Run the recommendation API server
  recommend   Query a running server for recommendations
  ingest      Build the catalog from a dump and persist it
  status      Show a running server's catalog status
  version     Print version
  help        Show this help

Run 'cinesense <command> -h' for command flags.
`)
}

// components holds everything the server wires together.
type components struct {
	Storage  *storage.SQLiteStorage
	Embedder embedding.Embedder
	Engine   *recommend.Engine
	Enricher enrich.Enricher
	RankCfg  *ranking.Config

	// rebuildMu serializes rebuilds so the persisted snapshot always comes
	// from the build that published last. The watcher, the rebuild endpoint,
	// and startup may all trigger one.
	rebuildMu sync.Mutex
}

func (c *components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var embedder embedding.Embedder
	if cfg.Embedding.ModelPath != "" {
		embedder, err = embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
			cfg.Embedding.CacheSize,
		)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("load embedding model: %w", err)
		}
	}

	timeout := time.Duration(cfg.Enrichment.TimeoutSeconds) * time.Second
	enricher := enrich.NewService(
		enrich.NewTMDBClient(cfg.Enrichment.TMDBAPIKey, cfg.Enrichment.TMDBBaseURL, timeout, logger),
		enrich.NewJikanClient(cfg.Enrichment.JikanBaseURL, timeout, logger),
		cfg.Enrichment.CacheSize,
	)

	rankCfg := &ranking.Config{
		FranchiseBoost: cfg.Ranking.FranchiseBoost,
		MaxTopN:        cfg.Ranking.MaxTopN,
	}
	rankCfg.ApplyDefaults()

	return &components{
		Storage:  store,
		Embedder: embedder,
		Engine:   recommend.NewEngine(cfg.Ranking.DefaultTopN, rankCfg.MaxTopN, logger),
		Enricher: enricher,
		RankCfg:  rankCfg,
	}, nil
}

// buildFromDump ingests the dump, publishes the snapshot, and persists it.
// Rebuilds run one at a time.
func buildFromDump(ctx context.Context, cfg *config.Config, comp *components, logger *zap.Logger) error {
	comp.rebuildMu.Lock()
	defer comp.rebuildMu.Unlock()

	records, err := ingest.LoadDump(cfg.Catalog.DumpPath)
	if err != nil {
		return err
	}
	result, err := ingest.Build(ctx, records, comp.Embedder, ingest.Options{
		FuzzyThreshold: cfg.Catalog.FuzzyMatchThreshold,
		Clustering: cluster.Config{
			ClustersPerType: cfg.Clustering.ClustersPerType,
			MaxIterations:   cfg.Clustering.MaxIterations,
			Seed:            cfg.Clustering.Seed,
		},
	})
	if err != nil {
		return err
	}
	snap, err := recommend.NewSnapshot(result.Store, result.Index, comp.RankCfg)
	if err != nil {
		return err
	}
	comp.Engine.Publish(snap)
	if err := comp.Storage.SaveSnapshot(ctx, result.Store.Items(), result.Index.Clusters()); err != nil {
		logger.Warn("snapshot persisted only in memory", zap.Error(err))
	}
	logger.Info("catalog built from dump",
		zap.String("dump", cfg.Catalog.DumpPath),
		zap.Int("items", result.Store.Len()),
		zap.Int("embedded", result.Embedded),
	)
	return nil
}

// loadFromStorage restores the last persisted snapshot, if any.
func loadFromStorage(ctx context.Context, cfg *config.Config, comp *components) (bool, error) {
	items, err := comp.Storage.LoadItems(ctx)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		return false, nil
	}
	clusters, err := comp.Storage.LoadClusters(ctx)
	if err != nil {
		return false, err
	}
	store, err := catalog.NewStore(items, cfg.Catalog.FuzzyMatchThreshold)
	if err != nil {
		return false, err
	}
	snap, err := recommend.NewSnapshot(store, cluster.Restore(clusters), comp.RankCfg)
	if err != nil {
		return false, err
	}
	comp.Engine.Publish(snap)
	return true, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	rebuildOnStart := fs.Bool("rebuild", false, "rebuild the catalog from the dump even if a persisted snapshot exists")
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

	comp, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comp.Close()

	ctx := context.Background()
	loaded := false
	if !*rebuildOnStart {
		loaded, err = loadFromStorage(ctx, cfg, comp)
		if err != nil {
			logger.Warn("persisted snapshot unusable", zap.Error(err))
		}
		if loaded {
			logger.Info("catalog restored from storage",
				zap.String("database", cfg.Storage.DatabasePath))
		}
	}
	var rebuild server.RebuildFunc
	if cfg.Catalog.DumpPath != "" {
		rebuild = func(ctx context.Context) error {
			return buildFromDump(ctx, cfg, comp, logger)
		}
		if !loaded {
			if err := buildFromDump(ctx, cfg, comp, logger); err != nil {
				logger.Fatal("Failed to build catalog", zap.Error(err))
			}
		}
	} else if !loaded {
		logger.Warn("no dump configured and no persisted snapshot; serving 503 until a rebuild")
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Catalog.Watch && cfg.Catalog.DumpPath != "" {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w := watcher.New(cfg.Catalog.DumpPath, func(path string) {
			logger.Info("dump changed, rebuilding", zap.String("path", path))
			if err := buildFromDump(context.Background(), cfg, comp, logger); err != nil {
				logger.Error("rebuild after dump change failed", zap.Error(err))
			}
		}, watchOpts...)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(comp.Engine, comp.Enricher, rebuild, &cfg.Server, logger)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dumpPath := fs.String("dump", "", "dump file to ingest (overrides config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dumpPath != "" {
		cfg.Catalog.DumpPath = *dumpPath
	}
	if cfg.Catalog.DumpPath == "" {
		fmt.Println("No dump configured; pass -dump or set catalog.dump_path")
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comp, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize components: %v\n", err)
		os.Exit(1)
	}
	defer comp.Close()

	if err := buildFromDump(context.Background(), cfg, comp, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	snap := comp.Engine.Snapshot()
	st := snap.Stats()
	fmt.Printf("Ingested %d items (%d clusters) into %s\n", st.Items, st.Clusters, cfg.Storage.DatabasePath)
	for _, ct := range models.ContentTypes() {
		if n := st.ByType[ct]; n > 0 {
			fmt.Printf("  %-8s %d\n", ct, n)
		}
	}
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	contentType := fs.String("type", "movie", "content type: movie, series, or anime")
	topN := fs.Int("top", models.DefaultTopN, "number of recommendations")
	sortMode := fs.String("sort", "", "sort mode: latest, oldest, popular, or top_rated (default relevance)")
	outputJSON := fs.Bool("json", false, "print raw JSON")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: cinesense recommend [flags] <title>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		fs.Usage()
		os.Exit(1)
	}

	reqBody, _ := json.Marshal(&models.RecommendRequest{
		Title: title,
		Type:  *contentType,
		TopN:  *topN,
		Sort:  models.SortMode(*sortMode),
	})
	resp, err := http.Post(*serverURL+"/api/recommend", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	if *outputJSON {
		fmt.Println(string(body))
		return
	}

	var recResp models.RecommendResponse
	if err := json.Unmarshal(body, &recResp); err != nil {
		fmt.Fprintf(os.Stderr, "Bad response: %v\n", err)
		os.Exit(1)
	}
	if len(recResp.Results) == 0 {
		if recResp.Message != "" {
			fmt.Println(recResp.Message)
		} else {
			fmt.Println("No recommendations.")
		}
		return
	}
	fmt.Printf("Recommendations for %q (%dms):\n", recResp.Query, recResp.QueryTime)
	for i, r := range recResp.Results {
		fmt.Printf("%2d. %s  (%.3f)\n", i+1, r.Title, r.Similarity)
		if r.ReleaseDate != "" && r.ReleaseDate != enrich.NotAvailable {
			fmt.Printf("    released %s", r.ReleaseDate)
			if r.Rating > 0 {
				fmt.Printf(", rated %.1f", r.Rating)
			}
			fmt.Println()
		}
		if r.Overview != "" && r.Overview != enrich.NoOverview {
			fmt.Printf("    %s\n", utils.Truncate(r.Overview, 120))
		}
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}
