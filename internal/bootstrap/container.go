package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/config"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/controller"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/implementation"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/memory"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/service"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/cache"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/embedding"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/llm"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/llm/factory"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/history"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/intent"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/response"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/retrieval"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/ratelimit"

	pktNats "github.com/Lbridge2222/bridge-fullstack-sub002/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AIController        controller.IAIController
	RAGController       controller.IRAGController
	KnowledgeController controller.IKnowledgeController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Shared infrastructure (exposed for shutdown)
	Limiter *ratelimit.Limiter
	NatsPub *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Event bus for ingestion work
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Embedding provider; empty provider name disables the vector leg and
	// retrieval degrades to lexical-only.
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		log.Printf("[INFO] No embedding provider configured, lexical-only retrieval")
	}

	// Generation provider; nil means every composition uses the
	// deterministic fallback.
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	if llmProvider != nil {
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
		if cfg.Ai.CircuitBreakerEnabled {
			// Repeated backend failures open the circuit so requests stop
			// absorbing the main timeout and fall back immediately.
			llmProvider = llm.NewBreaker(llmProvider, 3, 30*time.Second)
			log.Printf("[INFO] Generation circuit breaker enabled")
		}
	}

	narratorProvider := llmProvider
	if !cfg.Ai.NarratorEnabled {
		narratorProvider = nil
	}
	parserProvider := llmProvider
	if !cfg.Ai.ParserEnabled {
		parserProvider = nil
	}

	// NATS (optional, nil-safe degradation)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// Redis second cache tier (optional)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// Independent cache instances: the namespaced key scheme keeps them
	// collision-free, separate instances keep eviction pressure isolated.
	normCache := cache.New(cfg.Ai.CacheCapacity, cfg.Ai.CacheTTL)
	parseCache := cache.New(cfg.Ai.CacheCapacity, cfg.Ai.CacheTTL)
	narrationCache := cache.New(cfg.Ai.CacheCapacity, cfg.Ai.CacheTTL)
	triageCache := cache.New(cfg.Ai.CacheCapacity, cfg.Ai.CacheTTL)
	retrievalLocal := cache.New(cfg.Ai.CacheCapacity, 5*time.Minute)
	retrievalCache := cache.NewTiered(retrievalLocal, rdb, cfg.Ai.CacheTTL)

	limiter := ratelimit.New(ratelimit.Config{
		PerMinute:         cfg.Ai.RateLimitPerMin,
		Burst:             cfg.Ai.BurstLimit,
		ProfileMultiplier: cfg.Ai.ProfileMultiplier(),
	})

	// Repositories
	knowledgeRepo := implementation.NewKnowledgeRepository(db)
	leadRepo := implementation.NewLeadRepository(db)
	searcher := implementation.NewKnowledgeSearcher(knowledgeRepo)
	sessionRepo := memory.NewSessionRepository()

	// RAG pipeline components
	buffer := history.NewBuffer(history.NewSanitizer())
	resolver := intent.NewResolver(parserProvider, normCache, parseCache, sysLogger, 0, cfg.Ai.HelperTimeout)

	retrievalCfg := retrieval.DefaultConfig()
	retrievalCfg.HelperTimeout = cfg.Ai.EmbeddingTimeout
	engine := retrieval.NewEngine(embeddingProvider, searcher, retrievalCache, sysLogger, retrievalCfg)

	composer := response.NewComposer(narratorProvider, narrationCache, sysLogger, cfg.Ai.MainTimeout)

	// Services
	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IngestTopic,
		knowledgeRepo,
		embeddingProvider,
		sysLogger,
	)

	assistantService := service.NewAssistantService(
		limiter,
		buffer,
		resolver,
		engine,
		composer,
		sessionRepo,
		sysLogger,
		&cfg.Ai,
	)
	ragService := service.NewRAGService(limiter, engine, composer, sysLogger)
	triageService := service.NewTriageService(limiter, leadRepo, triageCache, natsPub, sysLogger)
	knowledgeService := service.NewKnowledgeService(knowledgeRepo, publisherService, sysLogger)

	return &Container{
		AIController:        controller.NewAIController(assistantService, triageService),
		RAGController:       controller.NewRAGController(ragService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),
		ConsumerService:     consumerService,
		Limiter:             limiter,
		NatsPub:             natsPub,
	}
}
