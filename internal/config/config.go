package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port         string        `yaml:"port" env:"PORT" env-default:"8080"`
	DBDriver     string        `yaml:"db_driver" env:"DB_DRIVER" env-default:"sqlite"`
	DBDSN        string        `yaml:"db_dsn" env:"DB_DSN" env-default:"bookmood.db"`
	LogFile      string        `yaml:"log_file" env:"LOG_FILE" env-default:"./bookmood.log"`
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"dev-secret-change-me"`
	SessionTTL   time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"720h"`
	BcryptCost   int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
	CookieSecure bool          `yaml:"cookie_secure" env:"COOKIE_SECURE" env-default:"false"`
	SeedDemo     bool          `yaml:"seed_demo" env:"SEED_DEMO" env-default:"false"`
}

// Load reads CONFIG_FILE (yaml) when set, then overlays the environment.
func Load() (Config, error) {
	var cfg Config
	var err error
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		help, _ := cleanenv.GetDescription(&cfg, nil)
		log.Printf("[config] %s", help)
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "pgx" {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	log.Printf("[config] PORT=%s DB_DRIVER=%s DB_DSN=%s LOG_FILE=%s SESSION_TTL=%s COOKIE_SECURE=%t",
		cfg.Port, cfg.DBDriver, redactDSN(cfg.DBDriver, cfg.DBDSN), cfg.LogFile, cfg.SessionTTL, cfg.CookieSecure)
	return cfg, nil
}

func redactDSN(driver, dsn string) string {
	if driver == "sqlite" {
		return dsn
	}
	return "<redacted>"
}
