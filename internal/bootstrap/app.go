package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"pdfchat/internal/agent"
	"pdfchat/internal/ai"
	"pdfchat/internal/app"
	"pdfchat/internal/cache"
	"pdfchat/internal/config"
	"pdfchat/internal/knowledge"
	"pdfchat/internal/model"
	rabbitmqClient "pdfchat/internal/platform/rabbitmq"
	redisClient "pdfchat/internal/platform/redis"
	sqliteClient "pdfchat/internal/platform/sqlite"
	"pdfchat/internal/repository"
	"pdfchat/internal/vectorstore"
	"pdfchat/internal/worker"
)

// App wires every dependency once at startup. Nothing is initialized at
// import time; handlers receive what they need explicitly.
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	VectorStore *vectorstore.Store

	IngestService    *app.IngestService
	ChatService      *app.ChatService
	TranscriptWorker *worker.TranscriptPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := sqliteClient.New(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.UploadedDocument{}, &model.Message{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	store, err := vectorstore.New(ctx, vectorstore.Config{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		APIKey:     cfg.Qdrant.APIKey,
		UseTLS:     cfg.Qdrant.UseTLS,
		Collection: cfg.Qdrant.Collection,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureCollection(ctx, cfg.LLM.EmbeddingDim); err != nil {
		return nil, err
	}

	llmClient := ai.NewClient(ai.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	})
	kb := knowledge.New(llmClient, store)

	docRepo := repository.NewDocumentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	publisher := rabbitmqClient.NewTranscriptPublisher(mqConn, cfg.RabbitMQ.TranscriptQueue)
	historyCache := cache.NewHistoryCache(
		redisCli,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	ingestService, err := app.NewIngestService(docRepo, kb, cfg.Storage.UploadDir)
	if err != nil {
		return nil, err
	}

	ragAgent := agent.New(agent.Options{
		Model:               llmClient,
		Knowledge:           kb,
		Description:         agent.Description,
		Instructions:        agent.SystemPrompt,
		SearchKnowledge:     true,
		ReadChatHistory:     true,
		AddHistoryToContext: true,
		Publisher:           publisher,
		Cache:               historyCache,
		Transcript:          messageRepo,
	})
	chatService := app.NewChatService(ragAgent)

	transcriptWorker := worker.NewTranscriptPersistWorker(mqConn, messageRepo, cfg.RabbitMQ.TranscriptQueue)
	if err := transcriptWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start transcript worker failed: %w", err)
	}

	return &App{
		Config:           cfg,
		DB:               db,
		Redis:            redisCli,
		MQConn:           mqConn,
		VectorStore:      store,
		IngestService:    ingestService,
		ChatService:      chatService,
		TranscriptWorker: transcriptWorker,
		StartedAt:        time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.TranscriptWorker != nil {
		a.TranscriptWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.VectorStore != nil {
		if err := a.VectorStore.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
