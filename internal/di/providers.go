package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"AssetBrief/internal/domain/repository"
	"AssetBrief/internal/handler/api"
	internalrepo "AssetBrief/internal/repository"
	"AssetBrief/internal/service/coingecko"
	"AssetBrief/internal/service/knowledge"
	"AssetBrief/internal/service/newsapi"
	"AssetBrief/internal/service/openai"
	"AssetBrief/internal/services/assemble"
	"AssetBrief/internal/usecase"
	"AssetBrief/pkg/cache"
	pkgch "AssetBrief/pkg/clickhouse"
	"AssetBrief/pkg/config"
	xhttp "AssetBrief/pkg/http"
	pkgkafka "AssetBrief/pkg/kafka"
	applogger "AssetBrief/pkg/logger"
	"AssetBrief/pkg/metrics"
	"AssetBrief/pkg/server"
)

// ProvideLogger creates the structured logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache selects the result cache: layered (Redis + in-process LRU)
// when Redis is enabled, plain in-process otherwise, nil when caching is off.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxSize)), nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache, cache.WithLayeredMemorySize(cfg.Cache.MaxSize)), nil
}

// ProvideHistoryStore selects the history store: ClickHouse when enabled,
// in-process otherwise.
func ProvideHistoryStore(cfg *config.Config, l *applogger.Logger) (repository.HistoryStore, error) {
	if !cfg.ClickHouse.Enabled {
		return internalrepo.NewMemoryHistoryStore(), nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := internalrepo.NewCHHistoryStore(ctx, client, l)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

// ProvideEventPublisher selects the completion event publisher: Kafka when
// enabled, no-op otherwise.
func ProvideEventPublisher(cfg *config.Config, l *applogger.Logger) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic, l), nil
}

// ProvidePriceProvider creates the CoinGecko client.
func ProvidePriceProvider(cfg *config.Config, l *applogger.Logger) repository.PriceProvider {
	coinIDs := make(map[string]string, len(cfg.Assets))
	for sym, a := range cfg.Assets {
		coinIDs[sym] = a.CoinID
	}
	return coingecko.NewClient(coingecko.Config{
		BaseURL: cfg.Providers.CoinGecko.BaseURL,
		APIKey:  cfg.Providers.CoinGecko.APIKey,
		Timeout: cfg.Providers.CoinGecko.Timeout,
		CoinIDs: coinIDs,
	}, l)
}

// ProvideNewsProvider creates the NewsAPI client.
func ProvideNewsProvider(cfg *config.Config, l *applogger.Logger) repository.NewsProvider {
	queries := make(map[string]string, len(cfg.Assets))
	for sym, a := range cfg.Assets {
		if a.NewsQuery != "" {
			queries[sym] = a.NewsQuery
		}
	}
	return newsapi.NewClient(newsapi.Config{
		BaseURL: cfg.Providers.NewsAPI.BaseURL,
		APIKey:  cfg.Providers.NewsAPI.APIKey,
		Timeout: cfg.Providers.NewsAPI.Timeout,
		Queries: queries,
	}, l)
}

// ProvideKnowledgeProvider creates the Wikipedia + SerpAPI background
// document provider. The coin identifier doubles as the search name.
func ProvideKnowledgeProvider(cfg *config.Config, l *applogger.Logger) repository.KnowledgeProvider {
	names := make(map[string]string, len(cfg.Assets))
	for sym, a := range cfg.Assets {
		names[sym] = a.CoinID
	}
	return knowledge.NewService(knowledge.Config{
		WikipediaBaseURL: cfg.Providers.Wikipedia.BaseURL,
		SerpBaseURL:      cfg.Providers.SerpAPI.BaseURL,
		SerpAPIKey:       cfg.Providers.SerpAPI.APIKey,
		Timeout:          cfg.Providers.Wikipedia.Timeout,
		Names:            names,
	}, l)
}

// ProvideGenerator creates the draft/verify generation driver. The verify
// pass falls back to the draft model when no separate one is configured.
func ProvideGenerator(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *usecase.Generator {
	draft := openai.NewService(openai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     cfg.OpenAI.Timeout,
		Phase:       "draft",
	}, l, m)

	verifyModel := cfg.OpenAI.VerifyModel
	if verifyModel == "" {
		verifyModel = cfg.OpenAI.Model
	}
	verify := openai.NewService(openai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       verifyModel,
		Temperature: 0,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     cfg.OpenAI.Timeout,
		Phase:       "verify",
	}, l, m)

	return usecase.NewGenerator(draft, verify, l)
}

// ProvideAssembler creates the context assembler.
func ProvideAssembler(cfg *config.Config) *assemble.Assembler {
	ac := assemble.DefaultConfig()
	if cfg.Pipeline.TokenBudget > 0 {
		ac.TokenBudget = cfg.Pipeline.TokenBudget
	}
	if cfg.Pipeline.ChartMaxPoints > 0 {
		ac.ChartMaxPoints = cfg.Pipeline.ChartMaxPoints
	}
	return assemble.New(ac)
}

// ProvideWorkflows wires the workflow orchestrator.
func ProvideWorkflows(
	prices repository.PriceProvider,
	news repository.NewsProvider,
	know repository.KnowledgeProvider,
	gen *usecase.Generator,
	asm *assemble.Assembler,
	store repository.HistoryStore,
	resultCache cache.Service,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Workflows {
	return usecase.NewWorkflows(prices, news, know, gen, asm, store, resultCache, events, m, l, usecase.Config{
		NewsLimit:      cfg.Pipeline.NewsLimit,
		KnowledgeLimit: cfg.Pipeline.KnowledgeLimit,
		CacheTTL:       cfg.Cache.TTL,
		StageTimeout:   cfg.Pipeline.StageTimeout,
	})
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(l *applogger.Logger, wf *usecase.Workflows, cfg *config.Config, store repository.HistoryStore) xhttp.Handler {
	return api.NewAssetHandler(l, wf, cfg, store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	store repository.HistoryStore,
	publisher repository.EventPublisher,
) *server.App {
	return server.New(cfg, l, handler, store, publisher)
}
