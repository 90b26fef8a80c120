// Package main is the stvbot CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/superteamvn/stvbot/internal/advisor"
	"github.com/superteamvn/stvbot/internal/bot"
	"github.com/superteamvn/stvbot/internal/config"
	"github.com/superteamvn/stvbot/internal/drafts"
	"github.com/superteamvn/stvbot/internal/embedding"
	"github.com/superteamvn/stvbot/internal/extract"
	"github.com/superteamvn/stvbot/internal/fileid"
	"github.com/superteamvn/stvbot/internal/ingest"
	"github.com/superteamvn/stvbot/internal/keyword"
	"github.com/superteamvn/stvbot/internal/llm"
	"github.com/superteamvn/stvbot/internal/rag"
	"github.com/superteamvn/stvbot/internal/roster"
	"github.com/superteamvn/stvbot/internal/server"
	"github.com/superteamvn/stvbot/internal/storage"
	"github.com/superteamvn/stvbot/internal/twitter"
	"github.com/superteamvn/stvbot/internal/vector"
	"github.com/superteamvn/stvbot/internal/watcher"
	"github.com/superteamvn/stvbot/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/stvbot/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so running from the project dir
// picks up the project's config.
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
	switch os.Args[1] {
	case "bot":
		runBot()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "search":
		runSearch()
	case "members":
		runMembers()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("stvbot version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// ingestHandler adapts the ingest pipeline to watcher callbacks.
type ingestHandler struct {
	ingestor *ingest.Ingestor
	exts     []string
	logger   *zap.Logger
}

func (h *ingestHandler) FileChanged(ctx context.Context, path string) {
	if err := h.ingestor.IngestFile(ctx, path, h.exts); err != nil {
		h.logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
	}
}

func (h *ingestHandler) FileRemoved(ctx context.Context, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	if err := h.ingestor.Delete(ctx, fileid.DocID(abs)); err != nil {
		h.logger.Warn("watch delete failed", zap.String("path", path), zap.Error(err))
	}
}

func runBot() {
	fs := flag.NewFlagSet("bot", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		fmt.Printf("Failed to load secrets: %v\n", err)
		os.Exit(1)
	}
	if err := secrets.RequireBotSecrets(); err != nil {
		fmt.Printf("Missing credentials: %v\n", err)
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
		zap.String("config_path", resolvedPath),
		zap.Bool("debug", debugMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	client, err := llm.NewGeminiClient(ctx, secrets.GeminiAPIKey, cfg.LLM.Model, cfg.LLM.Temperature)
	if err != nil {
		logger.Fatal("Failed to create Gemini client", zap.Error(err))
	}
	defer client.Close()

	engineOpts := []rag.Option{}
	if debugMode {
		engineOpts = append(engineOpts, rag.WithLogger(logger))
	}
	engine := rag.NewEngine(
		components.Embedder,
		components.Vectors,
		components.Storage,
		client,
		cfg.RAG.TopK,
		cfg.RAG.ConfidenceThreshold,
		engineOpts...,
	)
	adv := advisor.New(engine, components.Storage, cfg.RAG.AdvisorThreshold, logger)

	draftStore := drafts.NewStore(time.Duration(cfg.Telegram.DraftTTLMinutes)*time.Minute, logger)
	go draftStore.Run(ctx)

	var publisher twitter.Publisher
	if secrets.TwitterBearerToken != "" {
		publisher = twitter.NewAPIClient(cfg.Twitter.APIBaseURL, secrets.TwitterBearerToken)
	} else {
		logger.Info("TWITTER_BEARER_TOKEN not set, tweets will be simulated")
		publisher = &twitter.Simulator{}
	}
	manager := twitter.NewManager(adv, draftStore, publisher, components.Storage, cfg.Twitter.FollowedAccounts, logger)

	members, err := roster.Load(cfg.Roster.Path)
	if err != nil {
		logger.Fatal("Failed to load member roster", zap.String("path", cfg.Roster.Path), zap.Error(err))
	}
	if members == nil {
		logger.Warn("member roster not found, /find will have no results", zap.String("path", cfg.Roster.Path))
	}
	matcher := roster.NewMatcher(members, cfg.Telegram.MatchPageSize)

	tgBot, err := bot.New(bot.Config{
		Token:    secrets.TelegramBotToken,
		Engine:   engine,
		Matcher:  matcher,
		Manager:  manager,
		Advisor:  adv,
		Ingestor: components.Ingestor,
		AdminIDs: cfg.Telegram.AdminIDs,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Telegram", zap.Error(err))
	}
	logger.Info("telegram bot authorized", zap.String("username", tgBot.Username()))

	if len(cfg.Watch.Directories) > 0 {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w := watcher.New(&cfg.Watch, &ingestHandler{
			ingestor: components.Ingestor,
			exts:     cfg.Watch.Extensions,
			logger:   logger,
		}, watchOpts...)
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("watcher stopped", zap.Error(err))
			}
		}()
	}

	srv := server.NewServer(
		engine,
		components.Ingestor,
		components.Storage,
		components.Vectors,
		components.Keywords,
		&cfg.Server,
		secrets.AdminPassword,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Admin server failed", zap.Error(err))
		}
	}()

	botDone := make(chan error, 1)
	go func() { botDone <- tgBot.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-botDone:
		if err != nil {
			logger.Error("bot stopped", zap.Error(err))
		}
	}

	logger.Info("Shutting down...")
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.Vectors.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: stvbot ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := components.Ingestor.IngestDirectory(ctx, path, cfg.Watch.Extensions)
		if err != nil {
			fmt.Printf("Ingest failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d file(s) from %s\n", n, path)
	} else {
		if err := components.Ingestor.IngestFile(ctx, path, nil); err != nil {
			fmt.Printf("Ingest failed: %v\n", err)
			os.Exit(1)
		}
		abs, _ := filepath.Abs(path)
		fmt.Printf("Document ingested: %s\n", fileid.DocID(abs))
	}

	if cfg.Storage.VectorIndexPath != "" {
		if err := components.Vectors.Save(cfg.Storage.VectorIndexPath); err != nil {
			fmt.Printf("Warning: vector index save failed: %v\n", err)
		}
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	threshold := fs.Float64("threshold", -1, "confidence threshold override (default from config)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: stvbot ask [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		fmt.Printf("Failed to load secrets: %v\n", err)
		os.Exit(1)
	}
	if secrets.GeminiAPIKey == "" {
		fmt.Println("GEMINI_API_KEY is not set")
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	client, err := llm.NewGeminiClient(ctx, secrets.GeminiAPIKey, cfg.LLM.Model, cfg.LLM.Temperature)
	if err != nil {
		fmt.Printf("Failed to create Gemini client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	engine := rag.NewEngine(
		components.Embedder,
		components.Vectors,
		components.Storage,
		client,
		cfg.RAG.TopK,
		cfg.RAG.ConfidenceThreshold,
	)
	answer, err := engine.QueryWithThreshold(ctx, question, askThreshold(cfg, *threshold))
	if err != nil {
		fmt.Printf("Query failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(answer.Text)
	fmt.Printf("\nconfidence: %.2f\n", answer.Confidence)
	if len(answer.Sources) > 0 {
		fmt.Printf("sources: %s\n", strings.Join(answer.Sources, ", "))
	}
}

func askThreshold(cfg *config.Config, override float64) float64 {
	if override >= 0 {
		return override
	}
	return cfg.RAG.ConfidenceThreshold
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of results")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: stvbot search [flags] <query>")
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	hits, err := components.Keywords.Search(ctx, query, *limit)
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		os.Exit(1)
	}
	if len(hits) == 0 {
		fmt.Println("No matching documents.")
		return
	}
	seen := make(map[string]bool)
	for _, hit := range hits {
		chunk, err := components.Storage.GetChunk(ctx, hit.ID)
		if err != nil || seen[chunk.DocumentID] {
			continue
		}
		seen[chunk.DocumentID] = true
		title := chunk.DocumentID
		if doc, docErr := components.Storage.GetDocument(ctx, chunk.DocumentID); docErr == nil && doc.Title != "" {
			title = doc.Title
		}
		fmt.Printf("%.3f  %s\n      %s\n", hit.Score, title, utils.Truncate(chunk.Content, 120))
	}
}

func runMembers() {
	fs := flag.NewFlagSet("members", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	page := fs.Int("page", 0, "result page")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: stvbot members [flags] <skill> [skill...]")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	members, err := roster.Load(cfg.Roster.Path)
	if err != nil {
		fmt.Printf("Failed to load member roster: %v\n", err)
		os.Exit(1)
	}
	matcher := roster.NewMatcher(members, cfg.Telegram.MatchPageSize)

	result, err := matcher.Match(fs.Args(), *page)
	if err != nil {
		fmt.Printf("No more matches: %v\n", err)
		os.Exit(1)
	}
	if len(result.Results) == 0 {
		fmt.Println("No members found with the requested skills.")
		if len(result.AllSkills) > 0 {
			fmt.Printf("Available skills: %s\n", strings.Join(result.AllSkills, ", "))
		}
		return
	}
	for i, m := range result.Results {
		fmt.Printf("%d. %s  [%s]\n", result.StartRank+i, m.Member.Name, strings.Join(m.MatchingSkills, ", "))
	}
	if result.HasMore {
		fmt.Printf("More results available: --page %d\n", result.Page+1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	docs, err := components.Storage.CountDocuments(ctx)
	if err != nil {
		fmt.Printf("Count documents failed: %v\n", err)
		os.Exit(1)
	}
	chunks, err := components.Storage.CountChunks(ctx)
	if err != nil {
		fmt.Printf("Count chunks failed: %v\n", err)
		os.Exit(1)
	}

	status := struct {
		Documents       int64 `json:"documents"`
		Chunks          int64 `json:"chunks"`
		VectorIndexSize int   `json:"vector_index_size"`
	}{docs, chunks, components.Vectors.Count()}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:          %d\n", status.Documents)
		fmt.Printf("chunks:             %d\n", status.Chunks)
		fmt.Printf("vector_index_size:  %d\n", status.VectorIndexSize)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// Components holds initialized services shared by the subcommands.
type Components struct {
	Storage  storage.Storage
	Embedder embedding.Embedder
	Vectors  vector.Index
	Keywords keyword.Index
	Ingestor *ingest.Ingestor
}

func (c *Components) Close() {
	if c.Keywords != nil {
		_ = c.Keywords.Close()
	}
	if c.Vectors != nil {
		_ = c.Vectors.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using mock embeddings",
			zap.String("model_path", cfg.Embedding.ModelPath),
			zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
	}

	vectors, err := vector.LoadMemoryIndex(cfg.Storage.VectorIndexPath, cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}

	keywords, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	ingOpts := []ingest.Option{}
	if debug {
		ingOpts = append(ingOpts, ingest.WithLogger(logger))
	}
	ingestor := ingest.NewIngestor(
		store,
		embedder,
		vectors,
		keywords,
		extract.NewExtractor(),
		cfg.RAG.ChunkSize,
		cfg.RAG.ChunkOverlap,
		ingOpts...,
	)

	return &Components{
		Storage:  store,
		Embedder: embedder,
		Vectors:  vectors,
		Keywords: keywords,
		Ingestor: ingestor,
	}, nil
}

func printUsage() {
	fmt.Println(`stvbot - Superteam Vietnam community assistant

Usage:
  stvbot bot [flags]                 Run the Telegram bot and admin server
  stvbot ingest [flags] <path>       Ingest a file or directory into the knowledge base
  stvbot ask [flags] <question>      Ask a question against the knowledge base
  stvbot search [flags] <query>      Keyword search over the knowledge base
  stvbot members [flags] <skill>...  Find members by skill
  stvbot status [flags]              Show knowledge base status
  stvbot version                     Show version
  stvbot help                        Show this help

Bot Flags:
  --config string    Config file path (default: /usr/local/etc/stvbot/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path

Ask Flags:
  --config string      Config file path
  --threshold float    Confidence threshold override

Search Flags:
  --config string    Config file path
  --limit int        Number of results (default: 10)

Members Flags:
  --config string    Config file path
  --page int         Result page (default: 0)

Status Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Environment:
  TELEGRAM_BOT_TOKEN     Telegram bot token (required for bot)
  GEMINI_API_KEY         Gemini API key (required for bot, ask)
  TWITTER_BEARER_TOKEN   Twitter API token (optional; tweets are simulated without it)
  ADMIN_PASSWORD         Admin panel password (required for bot)

Examples:
  stvbot bot --debug
  stvbot ingest ./knowledge_base
  stvbot ask "What is Superteam Vietnam?"
  stvbot search grant program
  stvbot members rust solana
  stvbot status --output json`)
}
