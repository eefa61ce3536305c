package credstore

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/docreview/internal/log"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Path        string
	RedisAddr   string
	RedisPrefix string
}

// Open builds the Store described by opts. An empty backend means file.
func Open(opts Options, logger *log.Logger) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("credential file path is empty")
		}
		return NewFileStore(opts.Path, logger), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis backend requires an address")
		}
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		return NewRedisStore(client, opts.RedisPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q (want file, memory or redis)", opts.Backend)
	}
}
