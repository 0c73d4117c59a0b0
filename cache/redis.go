package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jaeyoon-oh/rarebooks/service"
)

// RedisCache is an optional TTL'd cache for recommendation results, keyed by
// "title|author". Cache faults are logged and treated as misses; the
// resolver works the same with or without it.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	log.Println("Connected to Redis")
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) GetRelated(ctx context.Context, key string) ([]service.Related, bool) {
	raw, err := c.client.Get(ctx, "related:"+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("redis get: %v", err)
		}
		return nil, false
	}
	var items []service.Related
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Printf("redis decode: %v", err)
		return nil, false
	}
	return items, true
}

func (c *RedisCache) SetRelated(ctx context.Context, key string, items []service.Related) {
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, "related:"+key, raw, c.ttl).Err(); err != nil {
		log.Printf("redis set: %v", err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
