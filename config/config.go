package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/VilyWonca/KAF-BACK/helper"
)

// Config holds every tunable of the service, parsed from environment
// variables with an optional .env file on top.
type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	UploadsDir string `env:"UPLOADS_DIR" envDefault:"./uploads"`
	BooksDir   string `env:"BOOKS_DIR" envDefault:"./books"`
	ModelsDir  string `env:"MODELS_DIR" envDefault:"./models"`

	// Embedder selects the embedding backend, "local" or "ollama"
	Embedder         string `env:"EMBEDDER" envDefault:"local"`
	EmbeddingDim     int    `env:"EMBEDDING_DIM" envDefault:"384"`
	OllamaURL        string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaChatModel  string `env:"OLLAMA_CHAT_MODEL" envDefault:"llama3.1"`
	OllamaEmbedModel string `env:"OLLAMA_EMBED_MODEL" envDefault:"nomic-embed-text"`

	// ChunkStrategy selects the chunker, "semantic" or "length"
	ChunkStrategy       string  `env:"CHUNK_STRATEGY" envDefault:"semantic"`
	ChunkMaxLength      int     `env:"CHUNK_MAX_LENGTH" envDefault:"1000"`
	SimilarityThreshold float32 `env:"SIMILARITY_THRESHOLD" envDefault:"0.35"`

	NoiseMinLength int `env:"NOISE_MIN_LENGTH" envDefault:"30"`
	NoiseMinWords  int `env:"NOISE_MIN_WORDS" envDefault:"3"`
	NoiseDotRun    int `env:"NOISE_DOT_RUN" envDefault:"3"`

	HybridAlpha   float64       `env:"HYBRID_ALPHA" envDefault:"0.9"`
	StreamTimeout time.Duration `env:"STREAM_TIMEOUT" envDefault:"60s"`

	Database helper.DatabaseConfiguration
}

// Load reads the configuration from the environment. A missing .env
// file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, helper.NewError("parse config from env", err)
	}

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, helper.NewError("parse database config from env", err)
	}
	config.Database = *dbConfig

	return config, nil
}
