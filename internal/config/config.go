package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds all tunables, constructed once at startup and passed
// down; no mid-run mutation (spec §9 Configuration).
type Config struct {
	// Server
	HTTPPort int
	Host     string

	// Database
	DatabaseURL string

	// Queue store (Redis)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisNamespace string

	// AI extractor
	OpenAIKey   string
	OpenAIModel string

	// Chat source. CHAT_API_ID/CHAT_API_HASH/CHAT_SESSION_NAME are the
	// recognized credential keys (spec §6); the Telegram Bot API adapter
	// this build ships authenticates with a single bot token, read from
	// CHAT_BOT_TOKEN and falling back to CHAT_API_HASH for compatibility.
	ChatAPIID           string
	ChatAPIHash         string
	ChatSessionName     string
	ChatBotToken        string
	UseMemoryChatSource bool

	AdminPassword         string
	CreateTablesOnStartup bool
	MaxExceptionsForAI    int
	Production            bool

	// Trade candidate retention
	TradeRetentionDays int

	// S3 cold-storage archiver (opt-in: only active when S3Bucket is set)
	S3Bucket             string
	S3Region             string
	S3Prefix             string
	ArchiveIntervalHours int
	ArchiveAfterHours    int

	ShutdownDrainTimeout time.Duration
}

// Load builds a Config from flags, falling back to environment
// variables, falling back to defaults (spec §6 "Configuration
// environment").
func Load() *Config {
	c := &Config{}

	flag.IntVar(&c.HTTPPort, "port", envInt("HTTP_PORT", 8100), "HTTP server port")
	flag.StringVar(&c.Host, "host", envStr("HTTP_HOST", "0.0.0.0"), "Listen host")

	flag.StringVar(&c.DatabaseURL, "database-url", envStr("DATABASE_URL", "mongodb://localhost:27017/tradesignal"), "Database connection URL")

	flag.StringVar(&c.RedisAddr, "redis-addr", envStr("REDIS_ADDR", "localhost:6379"), "Redis address")
	flag.StringVar(&c.RedisPassword, "redis-password", envStr("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&c.RedisDB, "redis-db", envInt("REDIS_DB", 0), "Redis logical database")
	flag.StringVar(&c.RedisNamespace, "redis-namespace", envStr("REDIS_NAMESPACE", "tradesignal"), "Redis key namespace")

	flag.StringVar(&c.OpenAIKey, "openai-key", envStr("OPENAI_KEY", ""), "OpenAI API key (required)")
	flag.StringVar(&c.OpenAIModel, "openai-model", envStr("OPENAI_MODEL", "gpt-4o-mini"), "OpenAI model for fallback extraction")

	flag.StringVar(&c.ChatAPIID, "chat-api-id", envStr("CHAT_API_ID", ""), "Chat source API id")
	flag.StringVar(&c.ChatAPIHash, "chat-api-hash", envStr("CHAT_API_HASH", ""), "Chat source API hash")
	flag.StringVar(&c.ChatSessionName, "chat-session-name", envStr("CHAT_SESSION_NAME", ""), "Chat source session name")
	flag.StringVar(&c.ChatBotToken, "chat-bot-token", envStr("CHAT_BOT_TOKEN", envStr("CHAT_API_HASH", "")), "Telegram bot token")

	flag.StringVar(&c.AdminPassword, "admin-pw", envStr("ADMIN_PW", ""), "Admin password (no endpoint of this server checks it)")
	flag.BoolVar(&c.CreateTablesOnStartup, "create-tables", envBool("CREATE_TABLES_ON_STARTUP", true), "Run repository migration on startup")
	flag.IntVar(&c.MaxExceptionsForAI, "max-exceptions-ai", envInt("MAX_EXCEPTIONS_FOR_AI_SIGNAL_EXTRACTION", 3), "Stage-A error threshold for Stage-B fallback (not applied: extraction uses extract.StageBThreshold = 3)")
	flag.BoolVar(&c.Production, "production", envBool("PRODUCTION", false), "Production mode (affects logging verbosity)")

	flag.IntVar(&c.TradeRetentionDays, "trade-retention", envInt("TRADE_RETENTION_DAYS", 7), "TradeCandidate retention in days (0 = keep forever)")

	flag.StringVar(&c.S3Bucket, "s3-bucket", envStr("S3_BUCKET", ""), "S3 bucket for cold-storage archival (empty = disabled)")
	flag.StringVar(&c.S3Region, "s3-region", envStr("S3_REGION", "us-east-1"), "AWS region for S3")
	flag.StringVar(&c.S3Prefix, "s3-prefix", envStr("S3_PREFIX", "tradesignal"), "S3 key prefix for archived candidates")
	flag.IntVar(&c.ArchiveIntervalHours, "archive-interval", envInt("ARCHIVE_INTERVAL_HOURS", 6), "Hours between archive runs")
	flag.IntVar(&c.ArchiveAfterHours, "archive-after", envInt("ARCHIVE_AFTER_HOURS", 24), "Archive candidates older than this many hours")

	flag.BoolVar(&c.UseMemoryChatSource, "memory-chat-source", envBool("USE_MEMORY_CHAT_SOURCE", false), "Use the in-process fake chat source instead of Telegram")

	flag.Parse()

	c.ShutdownDrainTimeout = 10 * time.Second

	return c
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
