package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Training       TrainingConfig       `mapstructure:"training"`
	Security       SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		InteractionSync string `mapstructure:"interaction_sync"`
		ModelEvents     string `mapstructure:"model_events"`
	} `mapstructure:"topics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecommendationConfig groups the serving-path knobs: the Phase table, the
// rule scorer's sub-score weights and the result cache TTLs.
type RecommendationConfig struct {
	Phase       PhaseConfig       `mapstructure:"phase"`
	RuleWeights RuleWeightsConfig `mapstructure:"rule_weights"`
	Caching     CachingConfig     `mapstructure:"caching"`

	DefaultLimit        int `mapstructure:"default_limit"`
	MaxLimit            int `mapstructure:"max_limit"`
	MaxCohabitantRange  int `mapstructure:"max_cohabitant_range"`
	CandidateFetchLimit int `mapstructure:"candidate_fetch_limit"`
}

// PhaseConfig defines the interaction-count bands. Band lower bounds are
// inclusive: counts below P2Min are P1, below P3Min are P2, the rest P3.
type PhaseConfig struct {
	P2Min           int64          `mapstructure:"p2_min"`
	P3Min           int64          `mapstructure:"p3_min"`
	RefreshInterval time.Duration  `mapstructure:"refresh_interval"`
	Weights         map[string]struct {
		Rule float64 `mapstructure:"rule"`
		MF   float64 `mapstructure:"mf"`
	} `mapstructure:"weights"`
}

// RuleWeightsConfig holds the relative weight of each attribute sub-score.
// They are normalized at scoring time, so only the proportions matter.
type RuleWeightsConfig struct {
	Gender      float64 `mapstructure:"gender"`
	Lifestyle   float64 `mapstructure:"lifestyle"`
	Personality float64 `mapstructure:"personality"`
	Smoking     float64 `mapstructure:"smoking"`
	Snoring     float64 `mapstructure:"snoring"`
	Pet         float64 `mapstructure:"pet"`
	Age         float64 `mapstructure:"age"`
	Cohabitant  float64 `mapstructure:"cohabitant"`
	Cost        float64 `mapstructure:"cost"`
}

type CachingConfig struct {
	ResultsTTL time.Duration `mapstructure:"results_ttl"`
}

// TrainingConfig holds the matrix-factorization hyperparameters and the
// implicit-feedback event weights.
type TrainingConfig struct {
	Factors         int           `mapstructure:"factors"`
	Epochs          int           `mapstructure:"epochs"`
	LearningRate    float64       `mapstructure:"learning_rate"`
	Regularization  float64       `mapstructure:"regularization"`
	InitStdDev      float64       `mapstructure:"init_std_dev"`
	Seed            int64         `mapstructure:"seed"`
	MinInteractions int           `mapstructure:"min_interactions"`
	Interval        time.Duration `mapstructure:"interval"`
	EventWeights    struct {
		Apply    float64 `mapstructure:"apply"`
		Bookmark float64 `mapstructure:"bookmark"`
		Comment  float64 `mapstructure:"comment"`
	} `mapstructure:"event_weights"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "5s")

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topics.interaction_sync", "interaction-sync")
	viper.SetDefault("kafka.topics.model_events", "model-events")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Phase bands and blend weights
	viper.SetDefault("recommendation.phase.p2_min", 100)
	viper.SetDefault("recommendation.phase.p3_min", 1000)
	viper.SetDefault("recommendation.phase.refresh_interval", "5m")
	viper.SetDefault("recommendation.phase.weights.P1.rule", 1.0)
	viper.SetDefault("recommendation.phase.weights.P1.mf", 0.0)
	viper.SetDefault("recommendation.phase.weights.P2.rule", 0.6)
	viper.SetDefault("recommendation.phase.weights.P2.mf", 0.4)
	viper.SetDefault("recommendation.phase.weights.P3.rule", 0.2)
	viper.SetDefault("recommendation.phase.weights.P3.mf", 0.8)

	// Rule scorer sub-score weights (normalized at scoring time)
	viper.SetDefault("recommendation.rule_weights.gender", 5.0)
	viper.SetDefault("recommendation.rule_weights.lifestyle", 1.0)
	viper.SetDefault("recommendation.rule_weights.personality", 1.0)
	viper.SetDefault("recommendation.rule_weights.smoking", 1.0)
	viper.SetDefault("recommendation.rule_weights.snoring", 1.0)
	viper.SetDefault("recommendation.rule_weights.pet", 1.0)
	viper.SetDefault("recommendation.rule_weights.age", 3.0)
	viper.SetDefault("recommendation.rule_weights.cohabitant", 1.0)
	viper.SetDefault("recommendation.rule_weights.cost", 1.0)

	viper.SetDefault("recommendation.caching.results_ttl", "15m")
	viper.SetDefault("recommendation.default_limit", 20)
	viper.SetDefault("recommendation.max_limit", 100)
	viper.SetDefault("recommendation.max_cohabitant_range", 5)
	viper.SetDefault("recommendation.candidate_fetch_limit", 500)

	// Matrix factorization defaults
	viper.SetDefault("training.factors", 50)
	viper.SetDefault("training.epochs", 20)
	viper.SetDefault("training.learning_rate", 0.005)
	viper.SetDefault("training.regularization", 0.02)
	viper.SetDefault("training.init_std_dev", 0.1)
	viper.SetDefault("training.seed", 42)
	viper.SetDefault("training.min_interactions", 20)
	viper.SetDefault("training.interval", "24h")
	viper.SetDefault("training.event_weights.apply", 3.0)
	viper.SetDefault("training.event_weights.bookmark", 2.0)
	viper.SetDefault("training.event_weights.comment", 1.0)

	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
