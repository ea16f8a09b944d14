package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/data/objectstore"
	"github.com/huddleapp/huddle/internal/data/redisStore"
	"github.com/huddleapp/huddle/internal/data/store"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/internal/handlers"
	"github.com/huddleapp/huddle/internal/job"
	"github.com/huddleapp/huddle/internal/mcpserver"
	"github.com/huddleapp/huddle/internal/rag"
	"github.com/huddleapp/huddle/internal/rag/embedding"
	"github.com/huddleapp/huddle/internal/rag/embedding/googleEmbedding"
	"github.com/huddleapp/huddle/internal/rag/embedding/openaiEmbedding"
	"github.com/huddleapp/huddle/internal/rag/ingest"
	"github.com/huddleapp/huddle/internal/rag/llm/gemini"
	"github.com/huddleapp/huddle/internal/rag/retrieve"
	"github.com/huddleapp/huddle/internal/rag/vectorDB"
	"github.com/huddleapp/huddle/internal/rag/vectorDB/memoryDB"
	"github.com/huddleapp/huddle/internal/rag/vectorDB/qdrantDB"
	"github.com/huddleapp/huddle/internal/server"
	"github.com/huddleapp/huddle/internal/worker"
	"github.com/huddleapp/huddle/pkg/logging"
)

var (
	listenAddr        string
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	logging.Init()
	logger := logging.NewLogger("main")

	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	jobStore, chatStore, documentStore := buildStores(serviceContext, logger)

	objects, err := objectstore.NewDiskStore(config.UploadDirName)
	if err != nil {
		logger.Error("could not prepare the upload directory", "error", err.Error())
		return
	}

	index := buildVectorIndex(serviceContext, logger)

	embedder, err := buildEmbedder(serviceContext)
	if err != nil {
		logger.Error("embedding client failed to initialize", "error", err.Error())
		return
	}

	llmProvider, err := gemini.NewClient(serviceContext, config.GeminiModelName, config.GeminiAPIKey())
	if err != nil {
		logger.Error("llm client failed to initialize", "error", err.Error())
		return
	}

	retriever := retrieve.NewService(embedder, index)
	pipeline := ingest.NewPipeline(embedder, index, chatStore, documentStore, objects)
	ragService := rag.NewService(embedder, index, llmProvider, retriever, pipeline)

	logger.Info("starting job service")
	jobService := job.InitJobService(jobStore)

	pool := worker.NewPool(jobService, ragService, chatStore)
	pool.Start(stopWorkerChannel, &workerWaitGroup)

	go runSweeper(serviceContext, ragService)

	handler := handlers.New(jobService, jobStore, chatStore, documentStore, objects, ragService)
	mcpServer := mcpserver.NewServer(ragService)
	srv := server.New(listenAddr, handler, mcpServer.Handler())

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	go srv.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	})
	go srv.Run()

	<-stopExecution
	logger.Info("server stopped")
}

// buildStores connects the three redis databases, falling back to in-memory
// stores together when redis is offline so state stays in one place.
func buildStores(ctx context.Context, logger *logging.Logger) (jobModel.JobStore, chatModel.MessageStore, chatModel.DocumentStore) {
	jobRedis, jobErr := redisStore.New(ctx, config.RedisJobStore)
	chatRedis, chatErr := redisStore.New(ctx, config.RedisChatStore)
	docRedis, docErr := redisStore.New(ctx, config.RedisDocumentStore)

	if jobErr != nil || chatErr != nil || docErr != nil {
		logger.Error("redis is offline, using in-memory stores", "jobErr", jobErr, "chatErr", chatErr, "docErr", docErr)
		return store.NewInMemoryJobStore(), store.NewInMemoryChatStore(), store.NewInMemoryDocumentStore()
	}
	return store.NewRedisJobStore(jobRedis), store.NewRedisChatStore(chatRedis), store.NewRedisDocumentStore(docRedis)
}

func buildVectorIndex(ctx context.Context, logger *logging.Logger) vectorDB.Index {
	index, err := qdrantDB.NewStore(ctx)
	if err != nil {
		logger.Error("qdrant is offline, using in-memory vector index", "error", err.Error())
		return memoryDB.NewStore(config.CacheSimilarityCutoff)
	}
	return index
}

func buildEmbedder(ctx context.Context) (embedding.Embedder, error) {
	if config.EmbeddingProvider() == "google" {
		return googleEmbedding.NewClient(ctx, config.GoogleEmbeddingModel, config.GeminiAPIKey())
	}
	return openaiEmbedding.NewClient(config.OpenAIAPIKey()), nil
}

// runSweeper periodically re-ingests sources whose embedding flag never got
// set, covering crashes and transient provider failures.
func runSweeper(ctx context.Context, ragService rag.Service) {
	ticker := time.NewTicker(config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ragService.Sweep(ctx, ingest.SweepMessages, config.SweepLimit)
			ragService.Sweep(ctx, ingest.SweepDocuments, config.SweepLimit)
		}
	}
}
