package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Session  SessionConfig
	Auth     AuthConfig
	CMS      CMSConfig
	Redis    RedisConfig
	Database DatabaseConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	cms, err := loadCMSConfig()
	if err != nil {
		return nil, err
	}

	redis, err := loadRedisConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Log:      loadLogConfig(),
		Session:  session,
		Auth:     loadAuthConfig(),
		CMS:      cms,
		Redis:    redis,
		Database: DatabaseConfig{URL: strings.TrimSpace(os.Getenv("DATABASE_URL"))},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	addr, err := ParseAddr(os.Getenv("PORT"))
	if err != nil {
		return ServerConfig{}, err
	}

	shutdown, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{Addr: addr, ShutdownTimeout: shutdown}, nil
}

// ParseAddr turns a PORT value into a listen address. Empty means ":8080";
// values containing a colon are used as-is.
func ParseAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
	}
}

// SessionConfig 描述实时聊天连接的参数。
type SessionConfig struct {
	Greeting     string
	PingInterval time.Duration
	PongWait     time.Duration
	WriteTimeout time.Duration
	ReadLimit    int64
}

func loadSessionConfig() (SessionConfig, error) {
	ping, err := parseDurationEnv("WS_PING_INTERVAL", 54*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}

	pong, err := parseDurationEnv("WS_PONG_WAIT", 60*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}

	write, err := parseDurationEnv("WS_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}

	readLimit := int64(64 << 10)
	if override, err := parseOptionalIntEnv("WS_READ_LIMIT"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		readLimit = int64(*override)
	}

	return SessionConfig{
		Greeting:     getEnvOrDefault("WS_GREETING", "Hello world!"),
		PingInterval: ping,
		PongWait:     pong,
		WriteTimeout: write,
		ReadLimit:    readLimit,
	}, nil
}

// AuthConfig 描述身份提供方 (Supabase) 的配置。
type AuthConfig struct {
	BaseURL   string
	PublicKey string
}

// Enabled 表示是否提供了必需的密钥。
func (c AuthConfig) Enabled() bool {
	return c.BaseURL != "" && c.PublicKey != ""
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		BaseURL:   strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
		PublicKey: strings.TrimSpace(os.Getenv("SUPABASE_PUBLIC_KEY")),
	}
}

// CMSConfig 描述 Sanity 内容服务的配置。
type CMSConfig struct {
	ProjectID  string
	Dataset    string
	Token      string
	UseCDN     bool
	APIVersion string
}

// Enabled 表示是否配置了 Sanity 项目。
func (c CMSConfig) Enabled() bool {
	return c.ProjectID != ""
}

func loadCMSConfig() (CMSConfig, error) {
	useCDN, err := parseBoolEnv("SANITY_USE_CDN", true)
	if err != nil {
		return CMSConfig{}, err
	}

	return CMSConfig{
		ProjectID:  strings.TrimSpace(os.Getenv("SANITY_PROJECT_ID")),
		Dataset:    getEnvOrDefault("SANITY_DATASET", "production"),
		Token:      strings.TrimSpace(os.Getenv("SANITY_TOKEN_KEY")),
		UseCDN:     useCDN,
		APIVersion: getEnvOrDefault("SANITY_API_VERSION", "v2021-10-21"),
	}, nil
}

// RedisConfig 描述共享计数器使用的 Redis。
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled 表示是否配置了 Redis 地址。
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

func loadRedisConfig() (RedisConfig, error) {
	db := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return RedisConfig{}, err
	} else if override != nil {
		db = *override
	}

	return RedisConfig{
		Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

// DatabaseConfig 描述排行榜使用的 Postgres。
type DatabaseConfig struct {
	URL string
}

// Enabled 表示是否配置了数据库连接串。
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
