// Package registry announces a live persistsvc instance so operators
// and peers can discover running processes. The announcement is a
// Redis key with a TTL heartbeat, withdrawn on shutdown; the service
// works fine without it, so nothing here is ever fatal.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/persistsvc/internal/config"
	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/version"
)

const (
	announceTTL       = 30 * time.Second
	heartbeatInterval = 10 * time.Second
)

type instanceRecord struct {
	Hostname string    `json:"hostname"`
	PID      int       `json:"pid"`
	Env      string    `json:"env"`
	Version  string    `json:"version"`
	Build    string    `json:"build"`
	Started  time.Time `json:"started"`
}

type Registry struct {
	log   *logger.Logger
	rdb   *goredis.Client
	key   string
	value []byte
}

// New connects to Redis and prepares the instance record. Returns nil
// (no error) when REDIS_ADDR is not configured: registration is
// optional and a nil Registry is a no-op.
func New(cfg *config.Config, log *logger.Logger) (*Registry, error) {
	if cfg.RedisAddr == "" {
		log.Info("No redis address configured, skipping instance registration")
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	record := instanceRecord{
		Hostname: hostname,
		PID:      os.Getpid(),
		Env:      cfg.ServiceEnv,
		Version:  version.Version,
		Build:    version.Build,
		Started:  time.Now().UTC(),
	}
	value, err := json.Marshal(record)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("marshal instance record: %w", err)
	}

	return &Registry{
		log:   log.With("service", "InstanceRegistry"),
		rdb:   rdb,
		key:   fmt.Sprintf("%s:instances:%s:%d", config.ServiceName, hostname, record.PID),
		value: value,
	}, nil
}

// Announce writes the instance key and keeps its TTL alive until ctx
// is cancelled, then withdraws the key. Heartbeat failures are logged
// and retried on the next tick.
func (r *Registry) Announce(ctx context.Context) error {
	if r == nil {
		<-ctx.Done()
		return nil
	}
	if err := r.publish(ctx); err != nil {
		r.log.Warn("Instance announce failed, will retry", "error", err)
	} else {
		r.log.Info("Instance announced", "key", r.key)
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.withdraw()
			return nil
		case <-ticker.C:
			if err := r.publish(ctx); err != nil {
				r.log.Warn("Instance heartbeat failed", "error", err)
			}
		}
	}
}

func (r *Registry) publish(ctx context.Context) error {
	return r.rdb.Set(ctx, r.key, r.value, announceTTL).Err()
}

func (r *Registry) withdraw() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		r.log.Warn("Instance withdraw failed", "error", err)
	} else {
		r.log.Info("Instance withdrawn", "key", r.key)
	}
	_ = r.rdb.Close()
}
