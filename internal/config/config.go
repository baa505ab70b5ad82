package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Address        string        `yaml:"address" env:"ADDRESS" env-default:":8080"`
	DBDriver       string        `yaml:"db_driver" env:"DB_DRIVER" env-default:"postgres"`
	DatabaseURL    string        `yaml:"database_url" env:"DATABASE_URL" env-required:"true"`
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173"`
	Domain         string        `yaml:"domain" env:"DOMAIN" env-default:"localhost"`
	Production     bool          `yaml:"production" env:"PRODUCTION" env-default:"false"`
	DeleteTimeout  time.Duration `yaml:"delete_timeout" env:"DELETE_TIMEOUT" env-default:"30s"`
	InvitationTTL  time.Duration `yaml:"invitation_ttl" env:"INVITATION_TTL" env-default:"168h"`
	SweepInterval  time.Duration `yaml:"invitation_sweep_interval" env:"INVITATION_SWEEP_INTERVAL" env-default:"1h"`
	TranslationDir string        `yaml:"translation_dir" env:"TRANSLATION_DIR"`
}

// Load reads a .env file if present, then the yaml file at path, falling
// back to the environment alone when path is empty or missing.
func Load(path string) (Config, error) {
	var cfg Config

	_ = godotenv.Load()

	if path != "" {
		err := cleanenv.ReadConfig(path, &cfg)
		if err == nil {
			return cfg, nil
		}

		var pe *os.PathError
		if !errors.As(err, &pe) {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}

	return cfg, nil
}
