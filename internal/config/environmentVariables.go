package config

import "os"

// Secrets and addresses come from the environment; constants are the
// local-dev fallbacks.

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// EmbeddingProvider selects the embedder wired at startup: "openai"
// (default) or "google".
func EmbeddingProvider() string {
	if p := os.Getenv("EMBEDDING_PROVIDER"); p != "" {
		return p
	}
	return "openai"
}

// AuthToken is the bearer token the middleware checks. Empty disables auth,
// which is only acceptable for local development.
func AuthToken() string {
	return os.Getenv("HUDDLE_AUTH_TOKEN")
}

func NoAuthBypass() bool {
	return AuthToken() == ""
}

func RedisAddress() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return RedisAddr
}
