package config

import (
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisOptions accepts either a redis:// URL or the Azure style
// "host:port,password=...,ssl=True" connection string.
func (r RedisConfig) RedisOptions() *redis.Options {
	if opts, err := redis.ParseURL(r.ConnectionString); err == nil {
		return opts
	}
	parts := strings.Split(r.ConnectionString, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "password":
			opts.Password = value
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(value), "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	return opts
}
