package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Assistant profiles. Each one selects a prompt template and fallback sentence.
const (
	ProfileNormativa  = "normativa"
	ProfileSecretaria = "secretaria"
)

// Loader kinds understood by the ingestion pipeline. A corpus with no loader
// is only written by other jobs (the audit feedback corpus).
const (
	LoaderPDF  = "pdf"
	LoaderText = "text"
	LoaderJSON = "json"
	LoaderHTML = "html"
)

// Config holds all configuration for the assistant.
type Config struct {
	Assistant  AssistantConfig         `yaml:"assistant"`
	Corpora    map[string]CorpusConfig `yaml:"corpora"`
	Embedding  EmbeddingConfig         `yaml:"embedding"`
	Generation GenerationConfig        `yaml:"generation"`
	Dataset    DatasetConfig           `yaml:"dataset"`
	Audit      AuditConfig             `yaml:"audit"`
	Review     ReviewConfig            `yaml:"review"`
	Server     ServerConfig            `yaml:"server"`
	Logging    LoggingConfig           `yaml:"logging"`
}

// AssistantConfig holds question-answering configuration.
type AssistantConfig struct {
	Profile     string  `yaml:"profile"` // "normativa" or "secretaria"
	Corpus      string  `yaml:"corpus"`
	TopK        int     `yaml:"top_k"`
	MaxDistance float64 `yaml:"max_distance"` // Drop hits farther than this (0 = disabled)
}

// CorpusConfig describes one logical corpus: where its sources live, how they
// are split and where its vector store is persisted.
type CorpusConfig struct {
	Loader       string           `yaml:"loader"`
	InputDir     string           `yaml:"input_dir"`
	Includes     []string         `yaml:"includes"`
	Excludes     []string         `yaml:"excludes"`
	ChunkSize    int              `yaml:"chunk_size"`
	ChunkOverlap int              `yaml:"chunk_overlap"`
	Separators   []string         `yaml:"separators"`
	StoreDir     string           `yaml:"store_dir"`
	Rebuild      bool             `yaml:"rebuild"`
	Embedding    *EmbeddingConfig `yaml:"embedding,omitempty"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"` // "ollama", "openai", "tei", "local"
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Dimension int           `yaml:"dimension"`
	BatchSize int           `yaml:"batch_size"`
	Language  string        `yaml:"language"` // tokenizer language for the local provider
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	Timeout   time.Duration `yaml:"timeout"`
}

// GenerationConfig holds chat/completion model configuration.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"` // "ollama", "openai", "deepseek"
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DatasetConfig locates the interview dataset.
type DatasetConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" or "postgres"
	DSN      string `yaml:"dsn"`
	JSONPath string `yaml:"json_path"`
}

// AuditConfig holds the batch audit configuration.
type AuditConfig struct {
	RulesCorpus       string  `yaml:"rules_corpus"`
	FeedbackCorpus    string  `yaml:"feedback_corpus"`
	RulesK            int     `yaml:"rules_k"`
	Limit             int     `yaml:"limit"`
	ExcerptChars      int     `yaml:"excerpt_chars"`
	RequestsPerMinute float64 `yaml:"requests_per_minute"` // 0 = unpaced
	Report            string  `yaml:"report"`              // optional .xlsx path
}

// ReviewConfig holds the editorial review agent configuration.
type ReviewConfig struct {
	RulesCorpus   string `yaml:"rules_corpus"`
	HistoryCorpus string `yaml:"history_corpus"`
	RulesK        int    `yaml:"rules_k"`
	HistoryK      int    `yaml:"history_k"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Assistant: AssistantConfig{
			Profile: ProfileSecretaria,
			Corpus:  "documentos",
			TopK:    6,
		},
		Corpora: map[string]CorpusConfig{
			"documentos": {
				Loader:       LoaderPDF,
				InputDir:     "Documentos/Documentos_US",
				Includes:     []string{"**/*.pdf"},
				ChunkSize:    600,
				ChunkOverlap: 150,
				Separators:   []string{"\nArtículo", "\n\n", "\n", ". "},
				StoreDir:     "stores/documentos_us",
				Rebuild:      true,
			},
			"reglas": {
				Loader:       LoaderText,
				InputDir:     "Documentos/Dataset_buenas_practicas",
				Includes:     []string{"**/*.txt"},
				ChunkSize:    1000,
				ChunkOverlap: 100,
				StoreDir:     "stores/reglas",
			},
			"feedback": {
				ChunkSize:    1000,
				ChunkOverlap: 100,
				StoreDir:     "stores/feedback",
			},
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "nomic-embed-text",
			BaseURL:   "http://localhost:11434",
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: 64,
			Language:  "es",
			CacheSize: 512,
			CacheTTL:  30 * time.Minute,
			Timeout:   120 * time.Second,
		},
		Generation: GenerationConfig{
			Provider:    "ollama",
			Model:       "llama3.1",
			BaseURL:     "http://localhost:11434",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0,
			Timeout:     5 * time.Minute,
		},
		Dataset: DatasetConfig{
			Driver:   "sqlite",
			DSN:      "entrevistas.db",
			JSONPath: "Documentos/Dataset_entrevistas/news_dialogue.json",
		},
		Audit: AuditConfig{
			RulesCorpus:    "reglas",
			FeedbackCorpus: "feedback",
			RulesK:         4,
			Limit:          50,
			ExcerptChars:   800,
		},
		Review: ReviewConfig{
			RulesCorpus:   "reglas",
			HistoryCorpus: "feedback",
			RulesK:        4,
			HistoryK:      2,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fillCorpusDefaults()

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for asistente.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "asistente.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".asistente", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// fillCorpusDefaults completes corpus entries that were only partially
// written in the YAML file.
func (c *Config) fillCorpusDefaults() {
	for name, corpus := range c.Corpora {
		if corpus.ChunkSize <= 0 {
			corpus.ChunkSize = 1000
		}
		if corpus.ChunkOverlap < 0 {
			corpus.ChunkOverlap = 0
		}
		if corpus.StoreDir == "" {
			corpus.StoreDir = filepath.Join("stores", name)
		}
		if corpus.Loader != "" && len(corpus.Includes) == 0 {
			corpus.Includes = defaultIncludes(corpus.Loader)
		}
		c.Corpora[name] = corpus
	}
}

func defaultIncludes(loader string) []string {
	switch loader {
	case LoaderPDF:
		return []string{"**/*.pdf"}
	case LoaderText:
		return []string{"**/*.txt", "**/*.md"}
	case LoaderJSON:
		return []string{"**/*.json"}
	case LoaderHTML:
		return []string{"**/*.html", "**/*.htm"}
	}
	return []string{"**/*"}
}

// Validate checks the configuration for values the pipelines cannot run with.
func (c *Config) Validate() error {
	switch c.Assistant.Profile {
	case ProfileNormativa, ProfileSecretaria:
	default:
		return fmt.Errorf("unknown assistant profile: %q", c.Assistant.Profile)
	}
	if c.Assistant.TopK < 1 {
		return fmt.Errorf("assistant.top_k must be at least 1, got %d", c.Assistant.TopK)
	}
	if _, ok := c.Corpora[c.Assistant.Corpus]; !ok {
		return fmt.Errorf("assistant.corpus %q is not a configured corpus", c.Assistant.Corpus)
	}
	for _, name := range c.CorpusNames() {
		corpus := c.Corpora[name]
		switch corpus.Loader {
		case "", LoaderPDF, LoaderText, LoaderJSON, LoaderHTML:
		default:
			return fmt.Errorf("corpus %s: unknown loader %q", name, corpus.Loader)
		}
		if corpus.ChunkSize <= 0 {
			return fmt.Errorf("corpus %s: chunk_size must be positive", name)
		}
		if corpus.ChunkOverlap < 0 || corpus.ChunkOverlap >= corpus.ChunkSize {
			return fmt.Errorf("corpus %s: chunk_overlap must be in [0, chunk_size)", name)
		}
		if corpus.StoreDir == "" {
			return fmt.Errorf("corpus %s: store_dir is required", name)
		}
	}
	return nil
}

// CorpusNames returns the configured corpus names in sorted order.
func (c *Config) CorpusNames() []string {
	names := make([]string, 0, len(c.Corpora))
	for name := range c.Corpora {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Corpus returns the named corpus profile.
func (c *Config) Corpus(name string) (CorpusConfig, error) {
	corpus, ok := c.Corpora[name]
	if !ok {
		return CorpusConfig{}, fmt.Errorf("unknown corpus: %s", name)
	}
	return corpus, nil
}

// EmbeddingFor returns the embedding configuration a corpus is built and
// queried with. Ingestion and retrieval must agree on it.
func (c *Config) EmbeddingFor(name string) EmbeddingConfig {
	if corpus, ok := c.Corpora[name]; ok && corpus.Embedding != nil {
		return *corpus.Embedding
	}
	return c.Embedding
}

// ApplyEnv applies the environment variables understood by the original
// ingestion scripts to the documentos corpus and the dataset location.
func (c *Config) ApplyEnv() {
	if corpus, ok := c.Corpora["documentos"]; ok {
		if v := os.Getenv("RUTA_PDFS"); v != "" {
			corpus.InputDir = v
		}
		if v := os.Getenv("DB_PATH"); v != "" {
			corpus.StoreDir = v
		}
		c.Corpora["documentos"] = corpus
	}
	if v := os.Getenv("MODEL_EMBEDDINGS"); v != "" {
		c.Embedding.Model = v
	}
	if c.Dataset.Driver == "postgres" && c.Dataset.DSN == "" {
		c.Dataset.DSN = PostgresDSNFromEnv()
	}
}

// PostgresDSNFromEnv builds a DSN from the DB_* variables.
func PostgresDSNFromEnv() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		getenv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getenv("DB_NAME", "entrevistas"),
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ResolvePaths makes relative corpus and dataset paths absolute against base.
func (c *Config) ResolvePaths(base string) {
	for name, corpus := range c.Corpora {
		corpus.InputDir = resolve(base, corpus.InputDir)
		corpus.StoreDir = resolve(base, corpus.StoreDir)
		c.Corpora[name] = corpus
	}
	c.Dataset.JSONPath = resolve(base, c.Dataset.JSONPath)
	if c.Dataset.Driver == "sqlite" {
		c.Dataset.DSN = resolve(base, c.Dataset.DSN)
	}
	if c.Audit.Report != "" {
		c.Audit.Report = resolve(base, c.Audit.Report)
	}
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(base, path)
}
