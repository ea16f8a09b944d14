package config

import (
	"log/slog"
	"time"
)

type contextKey string

const (
	IsProd       = false
	ProdLogLevel = slog.LevelInfo

	TraceIDKey contextKey = "traceId"

	RateLimitPerSecond      = 5
	BurstRateLimitPerSecond = 10

	// Embedding geometry. text-embedding-3-large and gemini-embedding-001
	// both support 3072-dimensional output.
	EmbeddingDimension int32 = 3072

	// Vector index partitions.
	ChunkPartition       = "huddle-chunks"
	AnswerCachePartition = "huddle-answer-cache"

	// Answers with a cached-question similarity above this are reused.
	CacheSimilarityCutoff = 0.97

	// Chunking. Document overlap is more generous than message overlap
	// because PDF body text loses paragraph structure during extraction.
	MessageChunkSize     = 1000
	MessageChunkOverlap  = 100
	DocumentChunkSize    = 1000
	DocumentChunkOverlap = 150
	EmbedBatchSize       = 100

	// Context budget. The full conversation always survives; retrieved
	// passages are truncated to whatever room remains.
	ModelContextWindow = 32768
	ResponseReserve    = 1024

	// Retrieval.
	DefaultRetrievalLimit = 5

	// Worker pool.
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	// Background sweep of not-yet-embedded sources.
	SweepInterval = 2 * time.Minute
	SweepLimit    = 25

	// Server timeouts.
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	ServerListenAddr = ":3000"

	// Job queue buffer.
	BufferLimit = 100

	// Qdrant.
	QdrantHost             = "127.0.0.1"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 2
	QdrantKeepAliveTime    = 30 * time.Second
	QdrantKeepAliveTimeout = 10 * time.Second

	// Models.
	GeminiModelName      = "gemini-2.5-flash"
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIEmbeddingModel = "text-embedding-3-large"

	AssistantPersona = "You are Huddle's workspace assistant. Answer using the supplied workspace context when it is relevant, cite documents by name, and say you don't know when the context doesn't cover the question."

	// Redis databases.
	RedisJobStore      = 0
	RedisChatStore     = 1
	RedisDocumentStore = 2

	RedisJobStoreTTL  = 24 * time.Hour
	RedisChatStoreTTL = 7 * 24 * time.Hour

	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	// Conversation turns handed to the budgeter per chat request.
	ConversationHistoryLimit = 10

	// Uploaded files land here until ingestion picks them up.
	UploadDirName = "uploaded_documents"

	MaxUploadSizeBytes = 32 << 20

	// Connection pooling for outbound API clients.
	MaxIdleConns        = 30
	MaxIdleConnsPerHost = 10
	IdleConnTimeout     = 90 * time.Second
)
