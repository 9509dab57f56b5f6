package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port                  string
	Env                   string
	CORSAllowOrigin       []string
	UploadRoot            string
	ObjectStoreType       string
	AWSRegion             string
	S3Bucket              string
	S3Prefix              string
	DatabaseURL           string
	MaxConcurrentRequests int
	ReportWorkers         int
	MaxUploadBytes        int64
	FFmpegPath            string
	ChatSessionTTL        time.Duration
	OCR                   OCRConfig
	Speech                SpeechConfig
	LLM                   LLMConfig
	ChatLLM               LLMConfig
}

// OCRConfig configures the tesseract engine.
type OCRConfig struct {
	Enabled        bool
	Languages      []string
	TessdataPrefix string
}

// SpeechConfig configures the Whisper-compatible transcription endpoint.
type SpeechConfig struct {
	Endpoint       string
	APIKey         string
	Model          string
	Language       string
	TimeoutSeconds int
}

// LLMConfig selects and configures one generation backend.
// Provider is "openai" (any OpenAI-compatible remote endpoint) or "ollama" (local).
type LLMConfig struct {
	Provider       string
	BaseURL        string
	APIKey         string
	Model          string
	Temperature    float64
	MaxTokens      int
	TimeoutSeconds int
	Referer        string
}

// Load reads configuration from an optional config file, environment variables and defaults.
// Nested keys map to env vars with "." replaced by "_", e.g. chat_llm.api_key -> CHAT_LLM_API_KEY.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("config: reading config file: %v", err)
		}
	} else {
		log.Printf("config: loaded %s", v.ConfigFileUsed())
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("env", "dev")
	v.SetDefault("cors_allow_origins", "*")
	v.SetDefault("upload_root", "./uploads")
	v.SetDefault("object_store", "local")
	v.SetDefault("aws_region", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_prefix", "")
	v.SetDefault("database_url", "")
	v.SetDefault("max_concurrent_requests", 16)
	v.SetDefault("report_workers", 4)
	v.SetDefault("max_upload_bytes", 25<<20)
	v.SetDefault("ffmpeg_path", "ffmpeg")
	v.SetDefault("chat_session_ttl", "30m")

	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.languages", "eng")
	v.SetDefault("ocr.tessdata_prefix", "")

	v.SetDefault("stt.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("stt.api_key", "")
	v.SetDefault("stt.model", "whisper-1")
	v.SetDefault("stt.language", "en")
	v.SetDefault("stt.timeout_seconds", 60)

	// Medicine labels and report analytics run on a locally hosted model.
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "seekhan")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.timeout_seconds", 300)
	v.SetDefault("llm.referer", "")

	// Voice chat runs on a remote chat-completion endpoint.
	v.SetDefault("chat_llm.provider", "openai")
	v.SetDefault("chat_llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("chat_llm.api_key", "")
	v.SetDefault("chat_llm.model", "meta-llama/llama-3.1-8b-instruct:free")
	v.SetDefault("chat_llm.temperature", 0.7)
	v.SetDefault("chat_llm.max_tokens", 150)
	v.SetDefault("chat_llm.timeout_seconds", 60)
	v.SetDefault("chat_llm.referer", "")
}

func fromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("env"))
	dbURL := strings.TrimSpace(v.GetString("database_url"))
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is not set in production; profiles are kept in memory")
	}

	return Config{
		Port:                  v.GetString("port"),
		Env:                   env,
		CORSAllowOrigin:       splitAndTrim(v.GetString("cors_allow_origins")),
		UploadRoot:            v.GetString("upload_root"),
		ObjectStoreType:       normalizeStoreType(v.GetString("object_store")),
		AWSRegion:             v.GetString("aws_region"),
		S3Bucket:              v.GetString("s3_bucket"),
		S3Prefix:              v.GetString("s3_prefix"),
		DatabaseURL:           dbURL,
		MaxConcurrentRequests: v.GetInt("max_concurrent_requests"),
		ReportWorkers:         v.GetInt("report_workers"),
		MaxUploadBytes:        v.GetInt64("max_upload_bytes"),
		FFmpegPath:            v.GetString("ffmpeg_path"),
		ChatSessionTTL:        v.GetDuration("chat_session_ttl"),
		OCR: OCRConfig{
			Enabled:        v.GetBool("ocr.enabled"),
			Languages:      splitAndTrim(v.GetString("ocr.languages")),
			TessdataPrefix: v.GetString("ocr.tessdata_prefix"),
		},
		Speech: SpeechConfig{
			Endpoint:       v.GetString("stt.endpoint"),
			APIKey:         v.GetString("stt.api_key"),
			Model:          v.GetString("stt.model"),
			Language:       v.GetString("stt.language"),
			TimeoutSeconds: v.GetInt("stt.timeout_seconds"),
		},
		LLM:     llmFromViper(v, "llm"),
		ChatLLM: llmFromViper(v, "chat_llm"),
	}
}

func llmFromViper(v *viper.Viper, key string) LLMConfig {
	return LLMConfig{
		Provider:       normalizeProvider(v.GetString(key + ".provider")),
		BaseURL:        strings.TrimRight(v.GetString(key+".base_url"), "/"),
		APIKey:         v.GetString(key + ".api_key"),
		Model:          v.GetString(key + ".model"),
		Temperature:    v.GetFloat64(key + ".temperature"),
		MaxTokens:      v.GetInt(key + ".max_tokens"),
		TimeoutSeconds: v.GetInt(key + ".timeout_seconds"),
		Referer:        v.GetString(key + ".referer"),
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ollama", "local":
		return "ollama"
	case "openai", "openrouter", "remote":
		return "openai"
	case "none", "":
		return "none"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}
