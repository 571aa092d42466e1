package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		Env             string        `yaml:"env"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`

	Database struct {
		DSN         string `yaml:"url"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	Email struct {
		Enabled      bool          `yaml:"enabled"`
		SMTPHost     string        `yaml:"smtp_host"`
		SMTPPort     int           `yaml:"smtp_port"`
		SMTPUsername string        `yaml:"smtp_user"`
		SMTPPassword string        `yaml:"smtp_password"`
		FromEmail    string        `yaml:"from_email"`
		FromName     string        `yaml:"from_name"`
		UseTLS       bool          `yaml:"use_tls"`
		SendTimeout  time.Duration `yaml:"send_timeout"`
		TemplatesDir string        `yaml:"templates_dir"`
	} `yaml:"email"`

	JWT struct {
		Secret        string        `yaml:"secret"`
		AccessTTL     time.Duration `yaml:"access_ttl"`
		RefreshTTL    time.Duration `yaml:"refresh_ttl"`
		RotateRefresh bool          `yaml:"rotate_refresh"`
	} `yaml:"jwt"`

	// Redis опционален: без адреса deny-set живет только в БД
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Storage struct {
		Type     string `yaml:"type"` // local | s3 | cloudflare_r2
		BasePath string `yaml:"base_path"`
		BaseURL  string `yaml:"base_url"`

		Bucket     string `yaml:"bucket"`
		Region     string `yaml:"region"`
		AccessKey  string `yaml:"access_key"`
		SecretKey  string `yaml:"secret_key"`
		Endpoint   string `yaml:"endpoint"`
		UseSSL     bool   `yaml:"use_ssl"`
		PublicRead bool   `yaml:"public_read"` // иначе GetURL отдает подписанную ссылку
	} `yaml:"storage"`

	Scheduler struct {
		AutoFinishSpec   string        `yaml:"auto_finish_spec"`
		AutoFinishAfter  time.Duration `yaml:"auto_finish_after"`
		BatchSize        int           `yaml:"batch_size"`
		TokenCleanupSpec string        `yaml:"token_cleanup_spec"`
	} `yaml:"scheduler"`

	RateLimit struct {
		AuthPerMinute int `yaml:"auth_per_minute"`
	} `yaml:"rate_limit"`
}

var AppConfig *Config

func LoadConfig() {
	// .env не обязателен, поэтому ошибку только логируем
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Не удалось загрузить .env: %v", err)
	}

	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		log.Println("Загрузка из config.yaml")

		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}
	} else {
		log.Println("Загрузка конфигурации из переменных окружения")
		cfg.Database.DSN = dbURL
		cfg.Database.AutoMigrate = true
		cfg.Storage.Type = "local"
		cfg.Storage.BasePath = "./uploads"
		cfg.Storage.BaseURL = "/media"
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	AppConfig = &cfg
}

// applyEnvOverrides - переменные окружения важнее файла
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.JWT.AccessTTL == 0 {
		cfg.JWT.AccessTTL = 60 * time.Minute
	}
	if cfg.JWT.RefreshTTL == 0 {
		cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Scheduler.AutoFinishSpec == "" {
		cfg.Scheduler.AutoFinishSpec = "0 */10 * * * *"
	}
	if cfg.Scheduler.AutoFinishAfter == 0 {
		cfg.Scheduler.AutoFinishAfter = 7 * 24 * time.Hour
	}
	if cfg.Scheduler.BatchSize == 0 {
		cfg.Scheduler.BatchSize = 100
	}
	if cfg.Scheduler.TokenCleanupSpec == "" {
		cfg.Scheduler.TokenCleanupSpec = "0 0 3 * * *"
	}
	if cfg.RateLimit.AuthPerMinute == 0 {
		cfg.RateLimit.AuthPerMinute = 30
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
