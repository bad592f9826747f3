package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	AllowOrigins    []string
	LogstashTCPAddr string

	MinIOEndpoint    string
	MinIOAccessKey   string
	MinIOSecretKey   string
	MinIOUseSSL      bool
	MinIOBucketTrips string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	AttachmentMaxBytes   int64
	AttachmentMaxCount   int
	AttachmentSignedTTL  time.Duration
	ImageMaxDimension    int
	FFMPEGPath           string
	ShareTokenSecret     string
	ShareTokenTTL        time.Duration
	EnableTripDelete     bool
	EnableTripShareLinks bool
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	attachmentMax := int64(10 * 1024 * 1024)
	if v, err := strconv.ParseInt(getenv("ATTACHMENT_MAX_BYTES", "10485760"), 10, 64); err == nil && v > 0 {
		attachmentMax = v
	}

	attachmentCount := 5
	if v, err := strconv.Atoi(getenv("ATTACHMENT_MAX_COUNT", "5")); err == nil && v > 0 {
		attachmentCount = v
	}

	imageMaxDim := 0
	if v, err := strconv.Atoi(getenv("IMAGE_MAX_DIMENSION", "0")); err == nil && v > 0 {
		imageMaxDim = v
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		MinIOEndpoint:    must("MINIO_ENDPOINT"),
		MinIOAccessKey:   must("MINIO_ACCESS_KEY"),
		MinIOSecretKey:   must("MINIO_SECRET_KEY"),
		MinIOUseSSL:      getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketTrips: getenv("MINIO_BUCKET_TRIPS", "tripfolio-trips"),

		OpenAIAPIKey:  must("OPENAI_API_KEY"),
		OpenAIBaseURL: getenv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getenv("OPENAI_MODEL", ""),

		AttachmentMaxBytes:   attachmentMax,
		AttachmentMaxCount:   attachmentCount,
		AttachmentSignedTTL:  duration("ATTACHMENT_SIGNED_TTL", 15*time.Minute),
		ImageMaxDimension:    imageMaxDim,
		FFMPEGPath:           getenv("FFMPEG_PATH", "ffmpeg"),
		ShareTokenSecret:     getenv("SHARE_TOKEN_SECRET", ""),
		ShareTokenTTL:        duration("SHARE_TOKEN_TTL", 7*24*time.Hour),
		EnableTripDelete:     getenv("ENABLE_TRIP_DELETE", "true") == "true",
		EnableTripShareLinks: getenv("ENABLE_TRIP_SHARE_LINKS", "true") == "true",
	}
}

func duration(key string, fallback time.Duration) time.Duration {
	raw := getenv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
