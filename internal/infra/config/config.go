package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	CacheDir     string
	RegistryPath string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	TextModel     string
	ImageModel    string

	LLMTimeout   int // seconds
	ImageTimeout int // seconds

	PageTTLHours  int
	ImageTTLHours int

	PageLRUSize    int
	PageLRUTTLMins int

	ImagesPerMinute int
}

func Load() *Config {
	return &Config{
		Env:             getEnv("ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		CacheDir:        getEnv("CACHE_DIR", "data/cache"),
		RegistryPath:    getEnv("VALID_PAGES_FILE", "data/valid_pages.json"),
		OpenAIAPIKey:    getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		TextModel:       getEnv("TEXT_MODEL", "gpt-4o-mini"),
		ImageModel:      getEnv("IMAGE_MODEL", "dall-e-3"),
		LLMTimeout:      getEnvInt("LLM_TIMEOUT_SECONDS", 120),
		ImageTimeout:    getEnvInt("IMAGE_TIMEOUT_SECONDS", 180),
		PageTTLHours:    getEnvInt("PAGE_TTL_HOURS", 24),
		ImageTTLHours:   getEnvInt("IMAGE_TTL_HOURS", 168),
		PageLRUSize:     getEnvInt("PAGE_LRU_SIZE", 256),
		PageLRUTTLMins:  getEnvInt("PAGE_LRU_TTL_MINUTES", 30),
		ImagesPerMinute: getEnvInt("IMAGES_PER_MINUTE", 10),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	// 1. Try direct environment variable
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// 2. Try reading from file specified by fileEnvKey
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
