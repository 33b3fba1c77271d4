package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPersona = "You are DOC, a smart, professional medical chatbot who can have ongoing conversations. " +
		"If a user sends you text from a file (lab results, prescriptions, etc.), read and advise as best you can. " +
		"Be accurate, friendly, and clear."
	DefaultFallbackNoResponse = "Sorry, I couldn't generate a response right now."
	DefaultFallbackConnection = "Sorry, I'm having trouble connecting to the medical engine right now."
	DefaultNothingReceived    = "I didn't hear anything."
	DefaultExcerptLimit       = 1500
	DefaultSessionTTL         = 30 * time.Minute
	DefaultMaxSessions        = 10000
)

// Config stores runtime configuration for both front-ends.
// Values come from defaults, an optional doc.yaml and the environment, in that order.
type Config struct {
	Persona         string           `mapstructure:"persona"`
	NothingReceived string           `mapstructure:"nothing_received"`
	Provider        string           `mapstructure:"provider"`
	Fallback        FallbackConfig   `mapstructure:"fallback"`
	Attachment      AttachmentConfig `mapstructure:"attachment"`
	Gemini          BackendConfig    `mapstructure:"gemini"`
	OpenAI          BackendConfig    `mapstructure:"openai"`
	Ollama          OllamaConfig     `mapstructure:"ollama"`
	HTTP            HTTPConfig       `mapstructure:"http"`
	Speech          SpeechConfig     `mapstructure:"speech"`
	Server          ServerConfig     `mapstructure:"server"`
	Log             LogConfig        `mapstructure:"log"`
}

type FallbackConfig struct {
	NoResponse string `mapstructure:"no_response"`
	Connection string `mapstructure:"connection"`
}

type AttachmentConfig struct {
	ExcerptLimit int `mapstructure:"excerpt_limit"`
}

type BackendConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Host  string `mapstructure:"host"`
	Model string `mapstructure:"model"`
}

type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type SpeechConfig struct {
	Command string `mapstructure:"command"`
}

type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	AllowedOrigin string        `mapstructure:"allowed_origin"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	MaxSessions   int           `mapstructure:"max_sessions"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// env names that do not follow the DOC_ prefix convention.
var envOverrides = map[string]string{
	"gemini.api_key":  "GEMINI_API_KEY",
	"gemini.model":    "GEMINI_MODEL",
	"gemini.base_url": "GEMINI_BASE_URL",
	"openai.api_key":  "OPENAI_API_KEY",
	"openai.model":    "OPENAI_MODEL",
	"openai.base_url": "OPENAI_BASE_URL",
	"ollama.host":     "OLLAMA_HOST",
	"ollama.model":    "OLLAMA_MODEL",
	"server.port":     "PORT",
	"speech.command":  "DOC_TTS_COMMAND",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("persona", DefaultPersona)
	v.SetDefault("nothing_received", DefaultNothingReceived)
	v.SetDefault("provider", "")
	v.SetDefault("fallback.no_response", DefaultFallbackNoResponse)
	v.SetDefault("fallback.connection", DefaultFallbackConnection)
	v.SetDefault("attachment.excerpt_limit", DefaultExcerptLimit)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4.1-mini")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ollama.host", "http://127.0.0.1:11434")
	v.SetDefault("ollama.model", "llama3.2")
	v.SetDefault("http.timeout_seconds", 60)
	v.SetDefault("speech.command", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origin", "http://localhost:5173")
	v.SetDefault("server.session_ttl", DefaultSessionTTL)
	v.SetDefault("server.max_sessions", DefaultMaxSessions)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load resolves configuration. A missing .env or doc.yaml is not an error.
func Load(paths ...string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("doc")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("DOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envOverrides {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	sanitize(&cfg)
	return cfg, nil
}

func sanitize(cfg *Config) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Gemini.APIKey = strings.TrimSpace(cfg.Gemini.APIKey)
	cfg.OpenAI.APIKey = strings.TrimSpace(cfg.OpenAI.APIKey)
	if strings.TrimSpace(cfg.Persona) == "" {
		cfg.Persona = DefaultPersona
	}
	if strings.TrimSpace(cfg.NothingReceived) == "" {
		cfg.NothingReceived = DefaultNothingReceived
	}
	if strings.TrimSpace(cfg.Fallback.NoResponse) == "" {
		cfg.Fallback.NoResponse = DefaultFallbackNoResponse
	}
	if strings.TrimSpace(cfg.Fallback.Connection) == "" {
		cfg.Fallback.Connection = DefaultFallbackConnection
	}
	if cfg.Attachment.ExcerptLimit <= 0 {
		cfg.Attachment.ExcerptLimit = DefaultExcerptLimit
	}
	if cfg.HTTP.TimeoutSeconds < 0 {
		cfg.HTTP.TimeoutSeconds = 60
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = DefaultSessionTTL
	}
	if cfg.Server.MaxSessions <= 0 {
		cfg.Server.MaxSessions = DefaultMaxSessions
	}
	if strings.TrimSpace(cfg.Server.Port) == "" {
		cfg.Server.Port = "8080"
	}
}
