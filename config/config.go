package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort    int
	AllowedOrigin string
	JWTSecret     string
	Database      DatabaseConfig
	Upload        UploadConfig
	Recognizer    RecognizerConfig
	Storage       StorageConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// UploadConfig controls where uploaded recordings land and how they are
// converted before recognition.
type UploadConfig struct {
	Dir       string
	FFmpegBin string
}

// RecognizerConfig selects and configures the speech-recognition backend.
type RecognizerConfig struct {
	Backend string // "openai" or "cloudflare"

	OpenAIAPIKey string
	OpenAIModel  string

	CloudflareAccountID string
	CloudflareAPIToken  string
	CloudflareModel     string
}

// StorageConfig selects the object-storage backend used to archive
// original uploads. Backend "none" disables archiving.
type StorageConfig struct {
	Backend string // "none", "minio" or "gcs"
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "voxnote"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "voxnote_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	uploadConfig := UploadConfig{
		Dir:       getEnv("UPLOAD_DIR", "uploads"),
		FFmpegBin: getEnv("FFMPEG_BIN", "ffmpeg"),
	}

	recognizerConfig := RecognizerConfig{
		Backend:             getEnv("RECOGNIZER_BACKEND", "openai"),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_STT_MODEL", "whisper-1"),
		CloudflareAccountID: getEnv("CF_ACCOUNT_ID", ""),
		CloudflareAPIToken:  getEnv("CF_API_TOKEN", ""),
		CloudflareModel:     getEnv("CF_STT_MODEL", "@cf/openai/whisper"),
	}

	storageConfig := StorageConfig{
		Backend: getEnv("STORAGE_BACKEND", "none"),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "voxnote-uploads"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	return Config{
		ServerPort:    getEnvInt("SERVER_PORT", 8000),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		Database:      dbConfig,
		Upload:        uploadConfig,
		Recognizer:    recognizerConfig,
		Storage:       storageConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "1" || valueStr == "true" || valueStr == "yes"
	}
	return defaultValue
}
