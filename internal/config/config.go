// Package config carga la configuración del servicio desde YAML y/o variables de entorno.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config es la raíz. Prioridad de fuentes:
//  1. path explícito (flag --config);
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. solo env.
//
// En los tres primeros casos las variables de entorno se aplican encima del YAML.
type Config struct {
	Env     string      `yaml:"env" env:"ENV" env-default:"local"`
	App     AppConfig   `yaml:"app"`
	HTTP    HTTPConfig  `yaml:"http"`
	Log     LogConfig   `yaml:"log"`
	DB      DBConfig    `yaml:"db"`
	Auth    AuthConfig  `yaml:"auth"`
	Redis   RedisConfig `yaml:"redis"`
	AMQP    AMQPConfig  `yaml:"amqp"`
	S3      S3Config    `yaml:"s3"`
	CORS    CORSConfig  `yaml:"cors"`
	Uploads UploadLimit `yaml:"uploads"`
}

type AppConfig struct {
	Name    string `yaml:"name" env:"APP_NAME" env-default:"HairyPaws"`
	Version string `yaml:"version" env:"APP_VERSION" env-default:"1.0"`
	// Prefijo global de rutas, sin barras ("api" => /api/...). Vacío = sin prefijo.
	APIPrefix string `yaml:"api_prefix" env:"API_PREFIX" env-default:"api"`
}

type HTTPConfig struct {
	Host         string        `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"PORT" env-default:"3000"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	// Tiempo máximo para drenar requests en shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr devuelve host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

type DBConfig struct {
	// Vacío => repos in-memory (modo dev).
	DSN string `yaml:"dsn" env:"DB_DSN"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-me"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TTL" env-default:"24h"`
	Issuer    string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"hairy-paws"`

	LoginRatePerSec  float64       `yaml:"login_rate_per_sec" env:"LOGIN_RATE_PER_SEC" env-default:"5"`
	LoginRateBurst   int           `yaml:"login_rate_burst" env:"LOGIN_RATE_BURST" env-default:"10"`
	LoginFailLimit   int           `yaml:"login_fail_threshold" env:"LOGIN_FAIL_THRESHOLD" env-default:"5"`
	LoginFailLockTTL time.Duration `yaml:"login_fail_ttl" env:"LOGIN_FAIL_TTL" env-default:"15m"`

	// Si ambos vienen, al arrancar se asegura una cuenta ADMIN con ese email.
	AdminEmail    string `yaml:"admin_email" env:"ADMIN_EMAIL"`
	AdminPassword string `yaml:"admin_password" env:"ADMIN_PASSWORD"`
}

type RedisConfig struct {
	// Vacío => lockout de login en memoria.
	URL string `yaml:"url" env:"REDIS_URL"`
}

type AMQPConfig struct {
	// Vacío => eventos solo al log.
	URL      string `yaml:"url" env:"AMQP_URL"`
	Exchange string `yaml:"exchange" env:"AMQP_EXCHANGE" env-default:"hairy-paws.events"`
}

type S3Config struct {
	// Vacío => imágenes en memoria.
	Endpoint      string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey     string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	Bucket        string `yaml:"bucket" env:"S3_BUCKET" env-default:"animal-images"`
	PublicBaseURL string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

type CORSConfig struct {
	// "*" refleja cualquier Origin (comportamiento histórico del API).
	Origins []string `yaml:"origins" env:"CORS_ORIGINS" env-separator:"," env-default:"*"`
}

type UploadLimit struct {
	MaxImageBytes int64 `yaml:"max_image_bytes" env:"MAX_IMAGE_BYTES" env-default:"5242880"`
}

// MustLoad es Load con panic.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	read := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}
		return cfg.normalize(), nil
	}

	if path != "" {
		return read(path)
	}
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return read(envPath)
	}
	if _, err := os.Stat("local.yaml"); err == nil {
		return read("local.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	return cfg.normalize(), nil
}

func (c *Config) normalize() *Config {
	c.App.APIPrefix = strings.Trim(strings.TrimSpace(c.App.APIPrefix), "/")
	return c
}
