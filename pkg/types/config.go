package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "legal-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PipelineConfig holds settings for one resolve invocation.
type PipelineConfig struct {
	// Timeout bounds a whole invocation. Expiry is detected at the next
	// capability call and yields a degraded result (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxQuestionLength caps the question length in runes (default 2000).
	MaxQuestionLength int `json:"max_question_length" yaml:"max_question_length"`

	// DefaultDomain is used when the classifier finds no domain and no hint
	// was given. Empty keeps "general".
	DefaultDomain Domain `json:"default_domain,omitempty" yaml:"default_domain,omitempty"`

	// BatchConcurrency bounds concurrent invocations in batch mode (default 4).
	BatchConcurrency int `json:"batch_concurrency" yaml:"batch_concurrency"`
}

// RetrievalConfig holds settings for the cascading retriever.
type RetrievalConfig struct {
	// MaxResults is the number of chunks returned per query (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MinScore drops chunks below this relevance (default 0.3).
	MinScore float64 `json:"min_score" yaml:"min_score"`

	// Backend selects the index: "sqlite" or "pgvector".
	Backend string `json:"backend" yaml:"backend"`

	// EnableWeb turns on the web-search fallback.
	EnableWeb bool `json:"enable_web" yaml:"enable_web"`
}

// LLMProvider names a completion backend.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderOllama LLMProvider = "ollama"
	ProviderGemini LLMProvider = "gemini"
)

// LLMConfig holds settings for the completion capability.
type LLMConfig struct {
	HTTPConfig `yaml:",inline"`

	Provider LLMProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gpt-4o-mini", "llama3.1", "gemini-1.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against OpenAI or Gemini.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the OpenAI endpoint or the Ollama host.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Temperature is passed through to providers that accept it.
	Temperature float32 `json:"temperature" yaml:"temperature"`

	// MaxRetries is the number of retry attempts on failed calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// EmbeddingModel is the OpenAI embedding model used by the pgvector
	// index (default "text-embedding-3-small").
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`

	// EmbeddingDimension is checked against every returned vector when set.
	EmbeddingDimension int `json:"embedding_dimension" yaml:"embedding_dimension"`
}

// KnowledgeBaseConfig holds settings for the SQLite legal knowledge base.
type KnowledgeBaseConfig struct {
	// KnowledgeDir is the base directory (contains corpus/ and index/).
	KnowledgeDir string `json:"knowledge_dir" yaml:"knowledge_dir"`

	// MaxResults is the default query limit (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// VectorConfig holds settings for the pgvector index.
type VectorConfig struct {
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`

	// Dimension is the embedding column size (default 1536).
	Dimension int `json:"dimension" yaml:"dimension"`
}

// WebSearchConfig holds settings for the SerpAPI web search.
type WebSearchConfig struct {
	HTTPConfig `yaml:",inline"`

	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// ResultsPerQuery caps organic results taken from each query variant (default 2).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query"`

	// DefaultRelevance is the fixed score given to web chunks (default 0.8).
	DefaultRelevance float64 `json:"default_relevance" yaml:"default_relevance"`
}

// ServerConfig holds settings for the HTTP front door.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Config is the full application configuration.
type Config struct {
	Pipeline  PipelineConfig      `json:"pipeline" yaml:"pipeline"`
	Retrieval RetrievalConfig     `json:"retrieval" yaml:"retrieval"`
	LLM       LLMConfig           `json:"llm" yaml:"llm"`
	Knowledge KnowledgeBaseConfig `json:"knowledge" yaml:"knowledge"`
	Vector    VectorConfig        `json:"vector" yaml:"vector"`
	WebSearch WebSearchConfig     `json:"web_search" yaml:"web_search"`
	Server    ServerConfig        `json:"server" yaml:"server"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Pipeline: PipelineConfig{
			Timeout:           60 * time.Second,
			MaxQuestionLength: 2000,
			BatchConcurrency:  4,
		},
		Retrieval: RetrievalConfig{
			MaxResults: 5,
			MinScore:   0.3,
			Backend:    "sqlite",
			EnableWeb:  true,
		},
		LLM: LLMConfig{
			HTTPConfig:     HTTPConfig{Timeout: 60 * time.Second, UserAgent: "legal-engine/0.1"},
			Provider:       ProviderOpenAI,
			Model:          "gpt-4o-mini",
			Temperature:    0.2,
			MaxRetries:     2,
			EmbeddingModel: "text-embedding-3-small",
		},
		Knowledge: KnowledgeBaseConfig{
			KnowledgeDir: "knowledge",
			MaxResults:   20,
		},
		Vector: VectorConfig{
			Dimension: 1536,
		},
		WebSearch: WebSearchConfig{
			HTTPConfig:       HTTPConfig{Timeout: 30 * time.Second, UserAgent: "legal-engine/0.1"},
			ResultsPerQuery:  2,
			DefaultRelevance: 0.8,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}
