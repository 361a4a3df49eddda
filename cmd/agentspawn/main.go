// Command agentspawn processes one task through the orchestration
// pipeline and prints the result as JSON.
//
// Usage:
//
//	agentspawn [-thread THREAD_ID] "task text"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agentspawn/orchestrator/internal/agents"
	"github.com/agentspawn/orchestrator/internal/config"
	"github.com/agentspawn/orchestrator/internal/embeddings"
	"github.com/agentspawn/orchestrator/internal/llm"
	"github.com/agentspawn/orchestrator/internal/memory"
	"github.com/agentspawn/orchestrator/internal/orchestrator"
	"github.com/agentspawn/orchestrator/internal/tools"
	"github.com/agentspawn/orchestrator/internal/tracing"
	"github.com/agentspawn/orchestrator/internal/vectordb"
)

func main() {
	threadID := flag.String("thread", "", "conversation thread id for cross-session memory")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: agentspawn [-thread THREAD_ID] \"task text\"")
		os.Exit(2)
	}
	task := strings.Join(flag.Args(), " ")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	if err := tracing.Initialize(cfg.Tracing, logger); err != nil {
		logger.Warn("Tracing initialization failed", zap.Error(err))
	}

	if cfg.Metrics.Enabled {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Warn("Metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	llmClient := llm.NewHTTPClient(cfg.LLM, logger)

	toolReg := tools.NewRegistry(logger)
	tools.RegisterDefaults(toolReg, logger)

	agentReg := agents.NewRegistry(llmClient, toolReg, logger)
	if err := agents.RegisterDefaults(agentReg); err != nil {
		logger.Fatal("Default specialist registration failed", zap.Error(err))
	}
	if cfg.SpecialistsFile != "" {
		if err := agents.LoadFile(agentReg, cfg.SpecialistsFile, logger); err != nil {
			logger.Warn("Specialists file load failed", zap.Error(err))
		} else if err := agents.WatchFile(ctx, agentReg, cfg.SpecialistsFile, logger); err != nil {
			logger.Warn("Specialists file watch failed", zap.Error(err))
		}
	}

	var memManager *memory.Manager
	if cfg.Memory.Enabled {
		memManager = buildMemory(ctx, cfg, logger)
	}

	engine, err := orchestrator.New(agentReg, toolReg, memManager, llmClient, cfg.Orchestrator, logger)
	if err != nil {
		logger.Fatal("Engine construction failed", zap.Error(err))
	}

	result, err := engine.ProcessTask(ctx, task, *threadID)
	if err != nil {
		logger.Fatal("Task processing failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("Result encoding failed", zap.Error(err))
	}
	fmt.Println(string(out))
}

// buildMemory registers whichever providers come up. An unreachable
// vector store degrades to checkpoint-only memory.
func buildMemory(ctx context.Context, cfg *config.Config, logger *zap.Logger) *memory.Manager {
	manager := memory.NewManager(logger)

	var cache embeddings.Cache
	if cfg.Memory.RedisAddr != "" {
		if redisCache, err := embeddings.NewRedisCache(cfg.Memory.RedisAddr); err != nil {
			logger.Warn("Redis embedding cache unavailable, using local LRU only", zap.Error(err))
		} else {
			cache = redisCache
		}
	}
	embedSvc := embeddings.NewService(cfg.Embeddings, cache, logger)

	store := vectordb.NewClient(cfg.VectorDB, logger)
	if vp, err := memory.NewVectorProvider(ctx, store, embedSvc, logger); err != nil {
		logger.Warn("Vector memory provider unavailable", zap.Error(err))
	} else {
		manager.RegisterProvider("vector", vp)
	}

	manager.RegisterProvider("checkpoint", memory.NewCheckpointProvider(cfg.Memory.RedisAddr, logger))
	return manager
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
