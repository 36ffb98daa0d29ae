package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	EnvProduction = "production"
	EnvLocal      = "local"
)

// ClientConfig centraliza la configuración del cliente de entrevistas.
type ClientConfig struct {
	Env            string        `env:"INTERVIEW_ENV" envDefault:"local"`
	ServiceURL     string        `env:"QUESTION_SERVICE_URL"`
	ProdURL        string        `env:"QUESTION_SERVICE_PROD_URL" envDefault:"https://aimockinterviwer-excelrelated.onrender.com"`
	LocalURL       string        `env:"QUESTION_SERVICE_LOCAL_URL" envDefault:"http://127.0.0.1:8000"`
	RequestTimeout time.Duration `env:"QUESTION_SERVICE_TIMEOUT" envDefault:"90s"`
	RevealInterval time.Duration `env:"REVEAL_INTERVAL" envDefault:"30ms"`
	LogFile        string        `env:"INTERVIEW_LOG_FILE"`
}

// LoadClientConfig carga la configuración del cliente desde variables de entorno.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BaseURL resuelve la ubicación del Question Service. QUESTION_SERVICE_URL tiene
// prioridad sobre la selección por entorno.
func (c *ClientConfig) BaseURL() (string, error) {
	if strings.TrimSpace(c.ServiceURL) != "" {
		return strings.TrimSpace(c.ServiceURL), nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case EnvProduction:
		return c.ProdURL, nil
	case EnvLocal, "":
		return c.LocalURL, nil
	default:
		return "", fmt.Errorf("unknown environment %q (want %s or %s)", c.Env, EnvProduction, EnvLocal)
	}
}

// ServerConfig centraliza la configuración del Question Service de referencia.
type ServerConfig struct {
	HTTPPort       string        `env:"HTTP_PORT" envDefault:"8000"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	Interviewer    string        `env:"INTERVIEWER" envDefault:"scripted"`
	QuestionBank   string        `env:"QUESTION_BANK_PATH" envDefault:"config/questions.yaml"`
	LLMAPIKey      string        `env:"LLM_API_KEY"`
	LLMBaseURL     string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel       string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMMaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"400"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// LoadServerConfig carga la configuración del servicio desde variables de entorno.
func LoadServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.Interviewer == "llm" && cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required when INTERVIEWER=llm")
	}
	return &cfg, nil
}
