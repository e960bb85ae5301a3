// Package config parses and loads the application configuration from the
// YAML file pointed to by CONFIG_PATH, with env-var overrides via cleanenv.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the top-level settings structure shared by the API server and
// the notification-sender worker.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	MediaDir                string `yaml:"media_dir" env-default:"./media"`
	PublicBaseURL           string `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Checkout                `yaml:"checkout"`
	FaceMatch               `yaml:"facematch"`
}

// HTTPServer holds listener settings.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"20"`
	RateBurst   int           `yaml:"rate_burst" env-default:"40"`
}

// JWTToken holds session-token settings.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RedisConnection holds cache settings.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ holds the notification-exchange connection settings.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP holds the outgoing mail settings used by the notification sender.
type SMTP struct {
	SMTPHost string `yaml:"host"`
	SMTPPort int    `yaml:"port" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// Checkout holds the hosted-checkout payment provider credentials.
type Checkout struct {
	CheckoutAPIURL    string `yaml:"api_url" env-default:"https://api.checkout.example/v1"`
	CheckoutSecretKey string `yaml:"secret_key" env:"CHECKOUT_SECRET_KEY"`
}

// FaceMatch holds the face-comparison API settings used at provider
// registration.
type FaceMatch struct {
	FaceMatchAPIURL    string  `yaml:"api_url" env-default:"https://api.facematch.example/v1"`
	FaceMatchAPIKey    string  `yaml:"api_key" env:"FACEMATCH_API_KEY"`
	FaceMatchThreshold float64 `yaml:"threshold" env-default:"90"`
}

// MustLoad reads the config from CONFIG_PATH and exits on any error.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
