package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vipulchinmay/projectaushadX/internal/analytics"
	"github.com/vipulchinmay/projectaushadX/internal/conversation"
	"github.com/vipulchinmay/projectaushadX/internal/decode"
	"github.com/vipulchinmay/projectaushadX/internal/llm"
	"github.com/vipulchinmay/projectaushadX/internal/llm/ollama"
	"github.com/vipulchinmay/projectaushadX/internal/llm/openai"
	"github.com/vipulchinmay/projectaushadX/internal/ocr"
	"github.com/vipulchinmay/projectaushadX/internal/ocr/tesseract"
	"github.com/vipulchinmay/projectaushadX/internal/profiles"
	"github.com/vipulchinmay/projectaushadX/internal/scan"
	"github.com/vipulchinmay/projectaushadX/internal/services/health"
	"github.com/vipulchinmay/projectaushadX/internal/shared/config"
	"github.com/vipulchinmay/projectaushadX/internal/shared/server"
	"github.com/vipulchinmay/projectaushadX/internal/shared/storage/db"
	"github.com/vipulchinmay/projectaushadX/internal/shared/storage/object"
	localstore "github.com/vipulchinmay/projectaushadX/internal/shared/storage/object/local"
	s3store "github.com/vipulchinmay/projectaushadX/internal/shared/storage/object/s3"
	"github.com/vipulchinmay/projectaushadX/internal/speech"
	"github.com/vipulchinmay/projectaushadX/internal/voice"
)

const janitorInterval = time.Minute

// App holds shared dependencies and the configured router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	OCR      *ocr.Recognizer
	LLM      llm.Client
	ChatLLM  llm.Client
	Sessions *conversation.Store

	ScanService      *scan.Service
	AnalyticsService *analytics.Service
	VoiceService     *voice.Service
	ProfilesService  *profiles.Service

	closers []func() error
}

// Build prepares every dependency from cfg and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	app.OCR = ocr.NewRecognizer(app.buildOCREngine(cfg.OCR))
	app.LLM = buildLLM("llm", cfg.LLM)
	app.ChatLLM = buildLLM("chat_llm", cfg.ChatLLM)
	app.Sessions = conversation.NewStore(llm.MedicalChatPersona, cfg.ChatSessionTTL)
	app.Sessions.StartJanitor(ctx, janitorInterval)

	var profileRepo profiles.Repo
	if sqlDB != nil {
		profileRepo = &profiles.PGRepo{DB: sqlDB}
	} else {
		profileRepo = profiles.NewMemoryRepo()
	}

	app.ScanService = &scan.Service{OCR: app.OCR, LLM: app.LLM}
	app.AnalyticsService = analytics.NewService(app.OCR, app.LLM, store, cfg.ReportWorkers)
	app.VoiceService = &voice.Service{
		Audio:    decode.NewAudioDecoder(cfg.FFmpegPath),
		Speech:   buildSpeech(cfg.Speech),
		LLM:      app.ChatLLM,
		Sessions: app.Sessions,
	}
	app.ProfilesService = profiles.NewService(profileRepo)

	var pinger health.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	healthSvc := health.NewService(pinger, map[string]string{
		"llm":          cfg.LLM.Provider,
		"chat_llm":     cfg.ChatLLM.Provider,
		"object_store": cfg.ObjectStoreType,
	})

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		Health:           healthSvc,
		ScanHandler:      scan.NewHandler(app.ScanService),
		AnalyticsHandler: analytics.NewHandler(app.AnalyticsService),
		VoiceHandler:     voice.NewHandler(app.VoiceService, cfg.MaxUploadBytes, cfg.CORSAllowOrigin),
		ProfilesHandler:  profiles.NewHandler(app.ProfilesService),
	})
	return app, nil
}

// Close releases the OCR engine and the database pool.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("bootstrap: close: %v", err)
		}
	}
	a.closers = nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("bootstrap: DATABASE_URL empty; profiles kept in memory")
		return nil, nil
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; profiles kept in memory: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.UploadRoot), nil
	}
}

func (a *App) buildOCREngine(cfg config.OCRConfig) ocr.Engine {
	if !cfg.Enabled {
		log.Printf("bootstrap: OCR disabled")
		return ocr.Unavailable{}
	}
	engine, err := tesseract.New(cfg.Languages, cfg.TessdataPrefix)
	if err != nil {
		log.Printf("bootstrap: tesseract unavailable; scans and image reports will fail: %v", err)
		return ocr.Unavailable{}
	}
	a.closers = append(a.closers, engine.Close)
	return engine
}

// buildLLM returns the configured backend, or a placeholder that fails every
// call so the rest of the API still serves.
func buildLLM(name string, cfg config.LLMConfig) llm.Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Provider {
	case "ollama":
		client, err := ollama.NewClient(cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens, timeout)
		if err != nil {
			log.Printf("bootstrap: %s: %v; generation disabled", name, err)
			return llm.PlaceholderClient{}
		}
		return client
	case "openai":
		var headers map[string]string
		if cfg.Referer != "" {
			headers = map[string]string{"HTTP-Referer": cfg.Referer}
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     timeout,
			Headers:     headers,
		})
		if err != nil {
			log.Printf("bootstrap: %s: %v; generation disabled", name, err)
			return llm.PlaceholderClient{}
		}
		return client
	default:
		log.Printf("bootstrap: %s provider not configured; generation disabled", name)
		return llm.PlaceholderClient{}
	}
}

func buildSpeech(cfg config.SpeechConfig) speech.Recognizer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return speech.NewWhisperClient(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Language, timeout)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
