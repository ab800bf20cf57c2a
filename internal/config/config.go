package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port            int              `json:"port"`
	LogConfig       logger.LogConfig `json:"log_config"`
	CORSOrigins     []string         `json:"cors_origins"`
	ChatRateLimitMS int              `json:"chat_rate_limit_ms"`
	Database        DatabaseConfig   `json:"database"`
	AI              AIConfig         `json:"ai"`
	Ingest          IngestConfig     `json:"ingest"`
	Retrieval       RetrievalConfig  `json:"retrieval"`
	FileStore       FileStoreConfig  `json:"file_store"`
	Jobs            JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIProviderConfig struct {
	Provider   string      `json:"provider"`
	ChatModel  string      `json:"chat_model"`
	EmbedModel string      `json:"embed_model"`
	Data       interface{} `json:"data"`
}

type AIConfig struct {
	Providers            []AIProviderConfig `json:"providers"`
	EmbedDimensions      int                `json:"embed_dimensions"`
	TimeoutSeconds       int                `json:"timeout_seconds"`
	EmbedBatchDelayMS    int                `json:"embed_batch_delay_ms"`
	EmbedCacheSize       int                `json:"embed_cache_size"`
	EmbedCacheTTLMinutes int                `json:"embed_cache_ttl_minutes"`
}

type IngestConfig struct {
	MaxChunkLen  int `json:"max_chunk_len"`
	ChunkOverlap int `json:"chunk_overlap"`
}

type RetrievalConfig struct {
	MaxResults             int `json:"max_results"`
	CrossMeetingMaxResults int `json:"cross_meeting_max_results"`
	VectorTopK             int `json:"vector_top_k"`
	CrossMeetingVectorTopK int `json:"cross_meeting_vector_top_k"`
	TimeoutSeconds         int `json:"timeout_seconds"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Dir  string      `json:"dir"`
	Data interface{} `json:"data"`
}

type JobsConfig struct {
	BackfillSpec  string `json:"backfill_spec"`
	BackfillBatch int    `json:"backfill_batch"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.DBName == "" {
		return nil, fmt.Errorf("database.dsn or database.db_name is required")
	}
	if len(cfg.AI.Providers) == 0 {
		return nil, fmt.Errorf("at least one ai provider is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.EmbedDimensions == 0 {
		cfg.AI.EmbedDimensions = 1536
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 4096
	}
	if cfg.AI.EmbedCacheTTLMinutes == 0 {
		cfg.AI.EmbedCacheTTLMinutes = 120
	}
	if cfg.Ingest.MaxChunkLen == 0 {
		cfg.Ingest.MaxChunkLen = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.MaxChunkLen {
		return nil, fmt.Errorf("ingest.chunk_overlap must be smaller than ingest.max_chunk_len")
	}
	if cfg.Retrieval.MaxResults == 0 {
		cfg.Retrieval.MaxResults = 15
	}
	if cfg.Retrieval.CrossMeetingMaxResults == 0 {
		cfg.Retrieval.CrossMeetingMaxResults = 25
	}
	if cfg.Retrieval.VectorTopK == 0 {
		cfg.Retrieval.VectorTopK = 8
	}
	if cfg.Retrieval.CrossMeetingVectorTopK == 0 {
		cfg.Retrieval.CrossMeetingVectorTopK = 20
	}
	if cfg.Retrieval.TimeoutSeconds == 0 {
		cfg.Retrieval.TimeoutSeconds = 30
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.FileStore.Type == "local" && cfg.FileStore.Dir == "" {
		cfg.FileStore.Dir = "./data/transcripts"
	}
	if cfg.Jobs.BackfillSpec == "" {
		cfg.Jobs.BackfillSpec = "*/10 * * * *"
	}
	if cfg.Jobs.BackfillBatch == 0 {
		cfg.Jobs.BackfillBatch = 20
	}
	return &cfg, nil
}
