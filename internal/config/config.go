package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// weightSumTolerance absorbs floating-point drift when checking that a weight
// group sums to 1.0.
const weightSumTolerance = 0.01

// DefaultConfigPaths lists where the config file is searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sugeria/config.yaml",
}

// ConfigPathEnvVar overrides the config file location when set.
const ConfigPathEnvVar = "CONFIG_PATH"

type ServerConfig struct {
	Port          string `koanf:"port"`
	AllowedOrigin string `koanf:"allowed_origin"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type AuthConfig struct {
	Secret          string `koanf:"secret"`
	TokenTTLMinutes int    `koanf:"token_ttl_minutes"`
}

type DataConfig struct {
	// Dir points at a directory holding users.json, items.json and
	// interactions.json. Empty means the built-in demo dataset.
	Dir string `koanf:"dir"`
}

// DemographicWeights splits the demographic similarity term between age
// closeness and exact-match boosts. The three fields must sum to 1.0.
type DemographicWeights struct {
	AgeWeight         float64 `koanf:"age_weight"`
	SameGenderBoost   float64 `koanf:"same_gender_boost"`
	SameLocationBoost float64 `koanf:"same_location_boost"`
}

// SimilarityWeights drives the pairwise user similarity score. The three top
// level weights must sum to 1.0.
type SimilarityWeights struct {
	ItemOverlapWeight float64            `koanf:"item_overlap_weight"`
	DemographicWeight float64            `koanf:"demographic_weight"`
	InterestWeight    float64            `koanf:"interest_weight"`
	AgeToleranceYears int                `koanf:"age_tolerance_years"`
	Demographic       DemographicWeights `koanf:"demographic"`
}

type ContentWeights struct {
	CategoryInterestWeight float64 `koanf:"category_interest_weight"`
	TagInterestWeight      float64 `koanf:"tag_interest_weight"`
	AgeFitWeight           float64 `koanf:"age_fit_weight"`
	QualityWeight          float64 `koanf:"quality_weight"`
	PopularityWeight       float64 `koanf:"popularity_weight"`
	PriceFitWeight         float64 `koanf:"price_fit_weight"`
	PricePenalty           float64 `koanf:"price_penalty"`
	HighTierMinPriceCents  int64   `koanf:"high_tier_min_price_cents"`
	LowTierMaxPriceCents   int64   `koanf:"low_tier_max_price_cents"`
}

type AlgorithmWeights struct {
	Collaborative float64 `koanf:"collaborative"`
	Content       float64 `koanf:"content"`
}

type RulesConfig struct {
	Enabled bool `koanf:"enabled"`
}

type RecommenderConfig struct {
	CacheTTLSeconds  int               `koanf:"cache_ttl_seconds"`
	TopPeers         int               `koanf:"top_peers"`
	Oversample       int               `koanf:"oversample"`
	DefaultLimit     int               `koanf:"default_limit"`
	AlgorithmWeights AlgorithmWeights  `koanf:"algorithm_weights"`
	Similarity       SimilarityWeights `koanf:"similarity"`
	Content          ContentWeights    `koanf:"content"`
	Rules            RulesConfig       `koanf:"rules"`
}

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Redis       RedisConfig       `koanf:"redis"`
	Auth        AuthConfig        `koanf:"auth"`
	Data        DataConfig        `koanf:"data"`
	Recommender RecommenderConfig `koanf:"recommender"`
}

// Default returns the built-in configuration the reference dataset was tuned
// with. Load starts from it before layering file and environment overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			AllowedOrigin: "http://127.0.0.1:3000",
		},
		Auth: AuthConfig{
			TokenTTLMinutes: 480,
		},
		Recommender: RecommenderConfig{
			CacheTTLSeconds: 20,
			TopPeers:        5,
			Oversample:      3,
			DefaultLimit:    5,
			AlgorithmWeights: AlgorithmWeights{
				Collaborative: 0.6,
				Content:       0.4,
			},
			Similarity: SimilarityWeights{
				ItemOverlapWeight: 0.4,
				DemographicWeight: 0.3,
				InterestWeight:    0.3,
				AgeToleranceYears: 10,
				Demographic: DemographicWeights{
					AgeWeight:         0.6,
					SameGenderBoost:   0.2,
					SameLocationBoost: 0.2,
				},
			},
			Content: ContentWeights{
				CategoryInterestWeight: 2.0,
				TagInterestWeight:      1.5,
				AgeFitWeight:           1.5,
				QualityWeight:          1.0,
				PopularityWeight:       1.0,
				PriceFitWeight:         1.0,
				PricePenalty:           0.2,
				HighTierMinPriceCents:  50000,
				LowTierMaxPriceCents:   15000,
			},
			Rules: RulesConfig{Enabled: true},
		},
	}
}

// Load builds the configuration in three layers: struct defaults, an optional
// YAML file, then environment variables. Validation failures are returned as
// errors so main can refuse to start.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces weight-group consistency. Any violation is a hard
// configuration error: the process must not serve scoring requests with
// weights that do not sum to one.
func (c *Config) Validate() error {
	rec := c.Recommender

	algSum := rec.AlgorithmWeights.Collaborative + rec.AlgorithmWeights.Content
	if math.Abs(algSum-1.0) > weightSumTolerance {
		return fmt.Errorf("algorithm weights must sum to 1.0, got %.4f", algSum)
	}
	if rec.AlgorithmWeights.Collaborative < 0 || rec.AlgorithmWeights.Content < 0 {
		return fmt.Errorf("algorithm weights must be non-negative")
	}

	sim := rec.Similarity
	simSum := sim.ItemOverlapWeight + sim.DemographicWeight + sim.InterestWeight
	if math.Abs(simSum-1.0) > weightSumTolerance {
		return fmt.Errorf("similarity weights must sum to 1.0, got %.4f", simSum)
	}
	if sim.ItemOverlapWeight < 0 || sim.DemographicWeight < 0 || sim.InterestWeight < 0 {
		return fmt.Errorf("similarity weights must be non-negative")
	}
	if sim.AgeToleranceYears < 1 {
		return fmt.Errorf("similarity age tolerance must be at least 1 year, got %d", sim.AgeToleranceYears)
	}

	demo := sim.Demographic
	demoSum := demo.AgeWeight + demo.SameGenderBoost + demo.SameLocationBoost
	if math.Abs(demoSum-1.0) > weightSumTolerance {
		return fmt.Errorf("demographic sub-weights must sum to 1.0, got %.4f", demoSum)
	}
	if demo.AgeWeight < 0 || demo.SameGenderBoost < 0 || demo.SameLocationBoost < 0 {
		return fmt.Errorf("demographic sub-weights must be non-negative")
	}

	content := rec.Content
	if content.PricePenalty < 0 {
		return fmt.Errorf("content price penalty must be non-negative, got %.4f", content.PricePenalty)
	}
	if content.HighTierMinPriceCents < 0 || content.LowTierMaxPriceCents < 0 {
		return fmt.Errorf("tier price thresholds must be non-negative")
	}
	if content.LowTierMaxPriceCents > content.HighTierMinPriceCents {
		return fmt.Errorf("low tier price cap (%d) must not exceed high tier floor (%d)",
			content.LowTierMaxPriceCents, content.HighTierMinPriceCents)
	}

	if rec.TopPeers < 1 {
		return fmt.Errorf("top_peers must be at least 1, got %d", rec.TopPeers)
	}
	if rec.Oversample < 1 {
		return fmt.Errorf("oversample must be at least 1, got %d", rec.Oversample)
	}
	if rec.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be at least 1, got %d", rec.DefaultLimit)
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf(":%s", c.Server.Port)
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps flat environment variable names onto nested config paths.
// Unknown variables are dropped so unrelated environment noise cannot leak
// into the configuration tree.
func envTransform(key string) string {
	mappings := map[string]string{
		"port":                       "server.port",
		"allowed_origin":             "server.allowed_origin",
		"database_url":               "database.url",
		"redis_addr":                 "redis.addr",
		"redis_password":             "redis.password",
		"redis_db":                   "redis.db",
		"auth_secret":                "auth.secret",
		"access_token_ttl_minutes":   "auth.token_ttl_minutes",
		"data_dir":                   "data.dir",
		"recommendation_ttl_seconds": "recommender.cache_ttl_seconds",
		"recommender_top_peers":      "recommender.top_peers",
		"recommender_rules_enabled":  "recommender.rules.enabled",
	}
	if mapped, ok := mappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
