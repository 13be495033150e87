package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort      int    `mapstructure:"APP_PORT"`
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	LogFormat    string `mapstructure:"LOG_FORMAT"`

	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`
	QuickModel    string `mapstructure:"QUICK_MODEL"`
	ThinkModel    string `mapstructure:"THINK_MODEL"`
	ResearchModel string `mapstructure:"RESEARCH_MODEL"`
	TitleModel    string `mapstructure:"TITLE_MODEL"`
	ImageModel    string `mapstructure:"IMAGE_MODEL"`

	SearchAPIURL string `mapstructure:"SEARCH_API_URL"`
	SearchAPIKey string `mapstructure:"SEARCH_API_KEY"`

	StorageBackend   string `mapstructure:"STORAGE_BACKEND"`
	StorageDir       string `mapstructure:"STORAGE_DIR"`
	StoragePublicURL string `mapstructure:"STORAGE_PUBLIC_URL"`
	S3Bucket         string `mapstructure:"S3_BUCKET"`
	S3Region         string `mapstructure:"S3_REGION"`
	S3Endpoint       string `mapstructure:"S3_ENDPOINT"`
	S3Prefix         string `mapstructure:"S3_PREFIX"`
	S3AccessKeyID    string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle   bool   `mapstructure:"S3_USE_PATH_STYLE"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	KeepAliveInterval time.Duration `mapstructure:"KEEPALIVE_INTERVAL"`
	MaxUploadBytes    int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	MaxDocumentChars  int           `mapstructure:"MAX_DOCUMENT_CHARS"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/askflow.db")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("LOG_FORMAT", "json")

	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("QUICK_MODEL", "gpt-4.1-mini")
	viper.SetDefault("THINK_MODEL", "o4-mini")
	viper.SetDefault("RESEARCH_MODEL", "gpt-4.1")
	viper.SetDefault("TITLE_MODEL", "gpt-4.1-nano")
	viper.SetDefault("IMAGE_MODEL", "gpt-image-1")

	viper.SetDefault("SEARCH_API_URL", "https://api.tavily.com/search")
	viper.SetDefault("SEARCH_API_KEY", "")

	viper.SetDefault("STORAGE_BACKEND", "file")
	viper.SetDefault("STORAGE_DIR", "/data/blobs")
	viper.SetDefault("STORAGE_PUBLIC_URL", "http://localhost:8000/files")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_PREFIX", "")
	viper.SetDefault("S3_ACCESS_KEY_ID", "")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_USE_PATH_STYLE", false)

	viper.SetDefault("JWT_SECRET", "")

	viper.SetDefault("KEEPALIVE_INTERVAL", "15s")
	viper.SetDefault("MAX_UPLOAD_BYTES", 20<<20)
	viper.SetDefault("MAX_DOCUMENT_CHARS", 100000)

	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {

			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
