// Package config loads the Eubyte backend configuration from defaults, an optional
// YAML file, a .env file and EUBYTE_* environment variables, and validates it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix is prepended to every environment override, e.g. EUBYTE_PROVIDERS_AZURE_API_KEY.
const EnvPrefix = "EUBYTE"

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Store     StoreConfig     `mapstructure:"store"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	StaticDir       string        `mapstructure:"static_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=5m"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" validate:"min=1024"`
}

type ProvidersConfig struct {
	// MockWhenUnconfigured answers with the offline mock provider for bots whose
	// credential is missing instead of reporting them unavailable.
	MockWhenUnconfigured bool           `mapstructure:"mock_when_unconfigured"`
	OpenAI               ProviderConfig `mapstructure:"openai"`
	Azure                ProviderConfig `mapstructure:"azure"`
	Gemini               ProviderConfig `mapstructure:"gemini"`
}

// ProviderConfig holds the connection and sampling parameters of one AI backend.
// Deployment and APIVersion only apply to Azure; TopK only to Gemini.
type ProviderConfig struct {
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Deployment  string        `mapstructure:"deployment"`
	APIVersion  string        `mapstructure:"api_version"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	TopP        float32       `mapstructure:"top_p"       validate:"min=0,max=1"`
	TopK        float32       `mapstructure:"top_k"       validate:"min=0"`
	MaxTokens   int           `mapstructure:"max_tokens"  validate:"min=1,max=200000"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	Persona     string        `mapstructure:"persona"     validate:"required"`
}

// Configured reports whether a credential is present.
func (p ProviderConfig) Configured() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

type WeatherConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"min=1s,max=2m"`
	MaxRetries uint64        `mapstructure:"max_retries" validate:"max=10"`
	Backend    string        `mapstructure:"backend"     validate:"oneof=azure openai gemini"`
	Persona    string        `mapstructure:"persona"     validate:"required"`
}

type AudioConfig struct {
	FFmpegPath    string        `mapstructure:"ffmpeg_path"    validate:"required"`
	FFmpegTimeout time.Duration `mapstructure:"ffmpeg_timeout" validate:"min=1s,max=10m"`
	ScratchDir    string        `mapstructure:"scratch_dir"`
	STT           STTConfig     `mapstructure:"stt"`
}

type STTConfig struct {
	BaseURL  string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"    validate:"required"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"  validate:"min=1s,max=10m"`
}

type StoreConfig struct {
	Driver        string        `mapstructure:"driver"         validate:"oneof=memory sqlite"`
	Path          string        `mapstructure:"path"           validate:"required_if=Driver sqlite"`
	Retention     time.Duration `mapstructure:"retention"      validate:"min=1h"`
	PruneSchedule string        `mapstructure:"prune_schedule" validate:"required"`
}

// Load reads configuration with the following precedence (lowest first): defaults,
// the YAML file at path (optional, may be empty), .env, EUBYTE_* environment variables.
func Load(path string) (*Config, error) {
	startTime := time.Now()

	// .env is optional
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Legacy deployments export the Azure key as "Edubyte".
	if err := v.BindEnv("providers.azure.api_key", EnvPrefix+"_PROVIDERS_AZURE_API_KEY", "Edubyte"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
			}
			slog.Info("configuration file not found, using defaults", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	slog.Info("configuration loaded successfully",
		"log_level", cfg.Log.Level,
		"addr", cfg.Server.Addr,
		"store_driver", cfg.Store.Driver,
		"duration_ms", time.Since(startTime).Milliseconds())

	return cfg, nil
}

// Validate checks the struct tags of the whole configuration tree.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", true)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5000", "http://127.0.0.1:5000"})
	v.SetDefault("server.static_dir", DefaultServerStaticDir)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.max_upload_bytes", DefaultServerMaxUploadBytes)

	v.SetDefault("providers.mock_when_unconfigured", false)
	providerDefaults(v, "providers.openai", DefaultOpenAIBaseURL, DefaultOpenAIModel)
	providerDefaults(v, "providers.azure", DefaultAzureBaseURL, DefaultAzureModel)
	v.SetDefault("providers.azure.deployment", DefaultAzureModel)
	v.SetDefault("providers.azure.api_version", DefaultAzureAPIVersion)
	providerDefaults(v, "providers.gemini", "", DefaultGeminiModel)
	v.SetDefault("providers.gemini.top_k", DefaultGeminiTopK)

	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.base_url", DefaultWeatherBaseURL)
	v.SetDefault("weather.timeout", DefaultWeatherTimeout)
	v.SetDefault("weather.max_retries", DefaultWeatherMaxRetries)
	v.SetDefault("weather.backend", DefaultWeatherBackend)
	v.SetDefault("weather.persona", DefaultWeatherPersona)

	v.SetDefault("audio.ffmpeg_path", DefaultFFmpegPath)
	v.SetDefault("audio.ffmpeg_timeout", DefaultFFmpegTimeout)
	v.SetDefault("audio.scratch_dir", "")
	v.SetDefault("audio.stt.base_url", DefaultOpenAIBaseURL)
	v.SetDefault("audio.stt.api_key", "")
	v.SetDefault("audio.stt.model", DefaultSTTModel)
	v.SetDefault("audio.stt.language", "")
	v.SetDefault("audio.stt.timeout", DefaultSTTTimeout)

	v.SetDefault("store.driver", DefaultStoreDriver)
	v.SetDefault("store.path", DefaultStorePath)
	v.SetDefault("store.retention", DefaultStoreRetention)
	v.SetDefault("store.prune_schedule", DefaultStorePruneSchedule)
}

// providerDefaults registers every provider key so AutomaticEnv can override it.
func providerDefaults(v *viper.Viper, prefix, baseURL, model string) {
	v.SetDefault(prefix+".base_url", baseURL)
	v.SetDefault(prefix+".api_key", "")
	v.SetDefault(prefix+".model", model)
	v.SetDefault(prefix+".deployment", "")
	v.SetDefault(prefix+".api_version", "")
	v.SetDefault(prefix+".temperature", DefaultTemperature)
	v.SetDefault(prefix+".top_p", DefaultTopP)
	v.SetDefault(prefix+".top_k", 0)
	v.SetDefault(prefix+".max_tokens", DefaultMaxTokens)
	v.SetDefault(prefix+".timeout", DefaultProviderTimeout)
	v.SetDefault(prefix+".persona", DefaultPersona)
}
