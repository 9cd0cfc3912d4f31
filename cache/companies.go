// ABOUTME: Redis read-through cache for company directory searches
// ABOUTME: Wraps any editor.CompanyDirectory; creating a company invalidates cached searches
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/harperreed/contactdesk/editor"
	"github.com/harperreed/contactdesk/models"
	"go.uber.org/zap"
)

const keyPrefix = "contactdesk:companies:"

var _ editor.CompanyDirectory = (*CompanyCache)(nil)

// CompanyCache caches search results of the wrapped directory. Redis
// failures are logged and the directory is queried directly.
type CompanyCache struct {
	next   editor.CompanyDirectory
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCompanyCache decorates next with a Redis cache.
func NewCompanyCache(next editor.CompanyDirectory, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CompanyCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func searchKey(query string, limit int) string {
	return fmt.Sprintf("%s%d:%s", keyPrefix, limit, strings.ToLower(strings.TrimSpace(query)))
}

func (c *CompanyCache) SearchCompanies(ctx context.Context, query string, limit int) ([]models.Company, error) {
	key := searchKey(query, limit)

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var companies []models.Company
		if jerr := json.Unmarshal([]byte(val), &companies); jerr == nil {
			return companies, nil
		}
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("company cache read failed", zap.String("key", key), zap.Error(err))
	}

	companies, err := c.next.SearchCompanies(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(companies); jerr == nil {
		if serr := c.rdb.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			c.logger.Warn("company cache write failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return companies, nil
}

// CreateCompany creates through the wrapped directory and drops every cached search.
func (c *CompanyCache) CreateCompany(ctx context.Context, name, industry string) (*models.Company, error) {
	company, err := c.next.CreateCompany(ctx, name, industry)
	if err != nil {
		return nil, err
	}
	if err := c.Invalidate(ctx); err != nil {
		c.logger.Warn("company cache invalidation failed", zap.Error(err))
	}
	return company, nil
}

// Invalidate removes all cached search results.
func (c *CompanyCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+"*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
