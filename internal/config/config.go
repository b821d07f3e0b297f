package config

import (
	"fmt"
	"os"
	"strconv"

	"questkit/domain/quest"
	"questkit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Export    ExportConfig
	Estimator quest.Params
}

// DatabaseConfig holds database connection settings. An empty URL selects the
// in-memory session store.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// ExportConfig holds workbook export settings
type ExportConfig struct {
	Dir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "."),
		},
	}

	params, err := loadEstimatorDefaults()
	if err != nil {
		return nil, err
	}
	cfg.Estimator = params

	return cfg, nil
}

// loadEstimatorDefaults reads the default estimator parameters, falling back
// to the classic 2AFC configuration for anything unset.
func loadEstimatorDefaults() (quest.Params, error) {
	p := quest.DefaultParams()

	overrides := []struct {
		key    string
		target *float64
	}{
		{"QUEST_PRIOR_MEAN", &p.PriorMean},
		{"QUEST_PRIOR_SD", &p.PriorSD},
		{"QUEST_CRITERION", &p.Criterion},
		{"QUEST_BETA", &p.Beta},
		{"QUEST_DELTA", &p.Delta},
		{"QUEST_GAMMA", &p.Gamma},
		{"QUEST_GRAIN", &p.Grain},
		{"QUEST_RANGE", &p.Range},
	}
	for _, o := range overrides {
		raw := os.Getenv(o.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return p, errors.ConfigInvalid(fmt.Sprintf("invalid %s value %q", o.key, raw))
		}
		*o.target = v
	}
	return p, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
