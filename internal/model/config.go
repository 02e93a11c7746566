package model

import "time"

// Config is the complete runtime configuration. Every threshold, deny-list
// and cap lives here and is handed to components at construction, so each
// component stays independently testable with different values.
type Config struct {
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Classifier  ClassifierConfig  `yaml:"classifier" mapstructure:"classifier"`
	Guardrail   GuardrailConfig   `yaml:"guardrail" mapstructure:"guardrail"`
	Orchestrate OrchestrateConfig `yaml:"orchestrate" mapstructure:"orchestrate"`
	Score       ScoreConfig       `yaml:"score" mapstructure:"score"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
}

// InputConfig bounds what the pipeline accepts.
type InputConfig struct {
	MaxChars  int      `yaml:"max_chars" mapstructure:"max_chars"`
	Languages []string `yaml:"languages" mapstructure:"languages"`
	Levels    []string `yaml:"levels" mapstructure:"levels"`
}

// ClassifierConfig tunes the chunk classification heuristics.
type ClassifierConfig struct {
	HeadingMaxWords int     `yaml:"heading_max_words" mapstructure:"heading_max_words"`
	MinAlphaRatio   float64 `yaml:"min_alpha_ratio" mapstructure:"min_alpha_ratio"`
	ListMarkerMin   int     `yaml:"list_marker_min" mapstructure:"list_marker_min"`
}

// GuardrailConfig tunes the deterministic validation rules.
type GuardrailConfig struct {
	DenyPhrases []string `yaml:"deny_phrases" mapstructure:"deny_phrases"`
}

// OrchestrateConfig bounds the per-chunk retry loop.
type OrchestrateConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// ScoreConfig holds the readability acceptance thresholds.
type ScoreConfig struct {
	MaxLIX            float64 `yaml:"max_lix" mapstructure:"max_lix"`
	MaxAvgSentence    float64 `yaml:"max_avg_sentence" mapstructure:"max_avg_sentence"`
	MaxPctLong        float64 `yaml:"max_pct_long" mapstructure:"max_pct_long"`
	LongWordChars     int     `yaml:"long_word_chars" mapstructure:"long_word_chars"`
	LongSentenceWords int     `yaml:"long_sentence_words" mapstructure:"long_sentence_words"`
}

// LLMConfig selects and tunes the provider.
type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // openai, groq, ollama
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"-" mapstructure:"api_key"` // Never serialized to disk
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
}

// CacheConfig tunes the chunk-result cache.
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// ConcurrencyConfig bounds parallel work against the provider.
type ConcurrencyConfig struct {
	ChunkWorkers      int     `yaml:"chunk_workers" mapstructure:"chunk_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// LogConfig locates the append-only run log store.
type LogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// HTTPConfig tunes outbound fetches for URL ingestion.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ServerConfig tunes the HTTP adapter.
type ServerConfig struct {
	Addr             string `yaml:"addr" mapstructure:"addr"`
	BatchMaxTexts    int    `yaml:"batch_max_texts" mapstructure:"batch_max_texts"`
	BatchMaxChars    int    `yaml:"batch_max_chars" mapstructure:"batch_max_chars"`
	BatchConcurrency int    `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
}

// DefaultConfig returns the built-in defaults. CLI flags, environment
// variables and the config file override these, in that order.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			MaxChars:  40000,
			Languages: []string{"de", "en"},
			Levels:    []string{"very_easy", "easy", "medium"},
		},
		Classifier: ClassifierConfig{
			HeadingMaxWords: 8,
			MinAlphaRatio:   0.5,
			ListMarkerMin:   2,
		},
		Guardrail: GuardrailConfig{
			DenyPhrases: DefaultDenyPhrases(),
		},
		Orchestrate: OrchestrateConfig{
			MaxAttempts:    3,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     8 * time.Second,
		},
		Score: ScoreConfig{
			MaxLIX:            40,
			MaxAvgSentence:    15,
			MaxPctLong:        10,
			LongWordChars:     6,
			LongSentenceWords: 20,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "",
			Timeout:     30 * time.Second,
			MaxTokens:   2000,
			Temperature: 0.3,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             1 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			ChunkWorkers:      4,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Log: LogConfig{
			Path: "./data/logs/runs.jsonl",
		},
		HTTP: HTTPConfig{
			Timeout:      20 * time.Second,
			UserAgent:    "KlarText/0.1 (+https://github.com/klartext/klartext)",
			MaxBodyBytes: 2_000_000,
		},
		Server: ServerConfig{
			Addr:             ":8000",
			BatchMaxTexts:    10,
			BatchMaxChars:    5000,
			BatchConcurrency: 4,
		},
	}
}

// DefaultDenyPhrases is the fixed deny-list of refusal/meta-commentary
// phrases a simplified chunk must never contain.
func DefaultDenyPhrases() []string {
	return []string{
		"here is the rewritten",
		"here is the simplified",
		"here is a simpler",
		"you want to know",
		"we don't have info",
		"we do not have info",
		"as an ai",
		"i cannot",
		"i can't help",
		"sure, here",
		"hier ist der vereinfachte",
		"hier ist eine einfachere",
		"als ki kann ich",
	}
}
