// internal/appconfig/appconfig.go
// Package appconfig manages loading and validating application configuration.
package appconfig

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout bounds backend HTTP requests. Generation against a
	// local model server can legitimately take minutes.
	defaultRequestTimeout = 120 * time.Second
	// defaultHistoryTurns is how many recent conversation turns are sent to the
	// generation backend when the config omits the value.
	defaultHistoryTurns = 6
)

// Config represents the top-level application configuration. It is built once
// per process and treated as immutable afterwards.
type Config struct {
	// Generation backend (OpenAI-compatible chat completions).
	GenerationURL string  `json:"generationUrl" mapstructure:"generationUrl"`
	Model         string  `json:"model" mapstructure:"model"`
	Temperature   float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens     int     `json:"maxTokens" mapstructure:"maxTokens"`

	// Embedding backend (OpenAI-compatible embeddings).
	EmbeddingURL   string `json:"embeddingUrl" mapstructure:"embeddingUrl"`
	EmbeddingModel string `json:"embeddingModel" mapstructure:"embeddingModel"`

	// Retrieval.
	TopK       int    `json:"topK" mapstructure:"topK"`
	Collection string `json:"collection" mapstructure:"collection"`
	DataDir    string `json:"dataDir" mapstructure:"dataDir"`

	// Corpus and chunking.
	CorpusPath   string `json:"corpusPath" mapstructure:"corpusPath"`
	CorpusURL    string `json:"corpusUrl,omitempty" mapstructure:"corpusUrl"`
	CorpusName   string `json:"corpusName" mapstructure:"corpusName"`
	ChunkWords   int    `json:"chunkWords" mapstructure:"chunkWords"`
	OverlapWords int    `json:"overlapWords" mapstructure:"overlapWords"`

	// Conversation.
	HistoryTurns int `json:"historyTurns,omitempty" mapstructure:"historyTurns"`

	// Process.
	TimeoutSeconds int    `json:"timeout,omitempty" mapstructure:"timeout"`
	LogFile        string `json:"logFile,omitempty" mapstructure:"logFile"`
	Debug          bool   `json:"debug" mapstructure:"debug"`
	ConfigPath     string `json:"-" mapstructure:"-"`
}

// Defaults returns a Config pre-populated with the values used when the
// configuration file omits a field.
func Defaults() Config {
	return Config{
		Temperature:  0.2,
		MaxTokens:    400,
		TopK:         3,
		Collection:   "corpus",
		DataDir:      "data",
		ChunkWords:   420,
		OverlapWords: 60,
		HistoryTurns: defaultHistoryTurns,
	}
}

// Validate checks the configuration once at construction time. A Config that
// passes Validate is safe to hand to every component without further checks.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GenerationURL) == "" {
		return fmt.Errorf("generationUrl is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if strings.TrimSpace(c.EmbeddingURL) == "" {
		return fmt.Errorf("embeddingUrl is required")
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return fmt.Errorf("embeddingModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0.0 and 1.0, got %v", c.Temperature)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("topK must be greater than zero, got %d", c.TopK)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("maxTokens must be greater than zero, got %d", c.MaxTokens)
	}
	if strings.TrimSpace(c.Collection) == "" {
		return fmt.Errorf("collection is required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("dataDir is required")
	}
	if c.ChunkWords <= 0 {
		return fmt.Errorf("chunkWords must be greater than zero, got %d", c.ChunkWords)
	}
	if c.OverlapWords < 0 {
		return fmt.Errorf("overlapWords must be zero or greater, got %d", c.OverlapWords)
	}
	if c.OverlapWords >= c.ChunkWords {
		return fmt.Errorf("overlapWords must be smaller than chunkWords")
	}
	if c.HistoryTurns < 0 {
		return fmt.Errorf("historyTurns must be zero or greater, got %d", c.HistoryTurns)
	}
	return nil
}

// RequestTimeout returns the timeout duration for backend HTTP requests,
// falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HistoryLimit returns the number of recent conversation turns forwarded to
// the generation backend.
func (c Config) HistoryLimit() int {
	if c.HistoryTurns <= 0 {
		return defaultHistoryTurns
	}
	return c.HistoryTurns
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "folio.log"
}

// Source returns the corpus name recorded in chunk metadata, defaulting to
// the collection name when unset.
func (c Config) Source() string {
	if s := strings.TrimSpace(c.CorpusName); s != "" {
		return s
	}
	return c.Collection
}
