package opcache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by ServiceConfig.Cache.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Options configures New.
type Options struct {
	Backend string
	// FileDir is required when Backend == BackendFile.
	FileDir string
	// RedisAddr is required when Backend == BackendRedis.
	RedisAddr string
}

// New builds the Cache backend named by opts.Backend, defaulting to an
// in-memory cache when Backend is empty.
func New(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		if opts.FileDir == "" {
			return nil, fmt.Errorf("opcache: file backend requires FileDir")
		}
		return NewFile(opts.FileDir), nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("opcache: redis backend requires RedisAddr")
		}
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		return NewRedis(client), nil
	default:
		return nil, fmt.Errorf("opcache: unknown backend %q", opts.Backend)
	}
}
