package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/utils"
)

// ServiceName is the identity used when claiming persist jobs. Every
// instance of this service claims with the same literal so that claims
// are arbitrated purely by the conditional update.
const ServiceName = "persistsvc"

type Config struct {
	ServiceEnv           string   `yaml:"service-env"`
	ServicePidFile       string   `yaml:"service-pid-file"`
	PersisterThreads     int      `yaml:"persister-threads"`
	PersisterPollSeconds int      `yaml:"persister-poll-seconds"`
	SpeakingThresholdMs  int      `yaml:"speaking-duration-threshold-ms"`
	DatabaseConnection   string   `yaml:"database-connection"`
	ZookeeperHosts       []string `yaml:"zookeeper-hosts"`
	RedisAddr            string   `yaml:"redis-addr"`
	HTTPPort             string   `yaml:"http-port"`
}

func defaults() *Config {
	return &Config{
		ServiceEnv:           "default",
		ServicePidFile:       "",
		PersisterThreads:     4,
		PersisterPollSeconds: 60,
		SpeakingThresholdMs:  0,
		HTTPPort:             "9092",
	}
}

// Load resolves configuration in three layers: built-in defaults, an
// optional YAML file named by PERSISTSVC_CONFIG, and finally environment
// variables, which always win.
func Load(log *logger.Logger) (*Config, error) {
	cfg := defaults()

	path := utils.GetEnv("PERSISTSVC_CONFIG", "", log)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	cfg.ServiceEnv = utils.GetEnv("SERVICE_ENV", cfg.ServiceEnv, log)
	if cfg.ServicePidFile == "" {
		cfg.ServicePidFile = fmt.Sprintf("%s.%s.pid", ServiceName, cfg.ServiceEnv)
	}
	cfg.ServicePidFile = utils.GetEnv("SERVICE_PID_FILE", cfg.ServicePidFile, log)
	cfg.PersisterThreads = utils.GetEnvAsInt("PERSISTER_THREADS", cfg.PersisterThreads, log)
	cfg.PersisterPollSeconds = utils.GetEnvAsInt("PERSISTER_POLL_SECONDS", cfg.PersisterPollSeconds, log)
	cfg.SpeakingThresholdMs = utils.GetEnvAsInt("SPEAKING_DURATION_THRESHOLD_MS", cfg.SpeakingThresholdMs, log)
	cfg.DatabaseConnection = utils.GetEnv("DATABASE_URL", cfg.DatabaseConnection, log)
	cfg.RedisAddr = utils.GetEnv("REDIS_ADDR", cfg.RedisAddr, log)
	cfg.HTTPPort = utils.GetEnv("HTTP_PORT", cfg.HTTPPort, log)
	cfg.ZookeeperHosts = utils.GetEnvAsList("ZOOKEEPER_HOSTS", cfg.ZookeeperHosts, log)

	if cfg.PersisterThreads < 1 {
		return nil, fmt.Errorf("persister-threads must be >= 1, got %d", cfg.PersisterThreads)
	}
	if cfg.PersisterPollSeconds < 1 {
		return nil, fmt.Errorf("persister-poll-seconds must be >= 1, got %d", cfg.PersisterPollSeconds)
	}
	return cfg, nil
}

// PollInterval is the monitor's wait between unclaimed-job scans.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PersisterPollSeconds) * time.Second
}

// SpeakingThreshold is the minimum duration a matched speaking pair must
// span before a marker is emitted. The shipped default is zero: all pairs
// emit.
func (c *Config) SpeakingThreshold() time.Duration {
	return time.Duration(c.SpeakingThresholdMs) * time.Millisecond
}
