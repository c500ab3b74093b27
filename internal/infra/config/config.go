package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервиса.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`

	Rabbit struct {
		URL   string `envconfig:"AMQP_URL"`
		Queue string `envconfig:"ROOM_EVENTS_QUEUE" default:"debate_room_events"`
	} `envconfig:""`

	OpenAI struct {
		APIKey  string        `envconfig:"OPENAI_API_KEY"`
		BaseURL string        `envconfig:"OPENAI_BASE_URL"`
		Model   string        `envconfig:"OPENAI_MODERATION_MODEL" default:"omni-moderation-latest"`
		Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"10s"`
	} `envconfig:""`

	Debate struct {
		RequestThreshold int           `envconfig:"DEBATE_REQUEST_THRESHOLD" default:"5"`
		SpeakingLimit    time.Duration `envconfig:"DEBATE_SPEAKING_LIMIT" default:"120s"`
		MaxInterruptions int           `envconfig:"DEBATE_MAX_INTERRUPTIONS" default:"2"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
