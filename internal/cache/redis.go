// Package cache хранит вычисленные метрики, сессии и рекорды серий в redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/daily-diet/internal/config"
)

// Cache обёртка над клиентом redis, хранящая значения в JSON.
type Cache struct {
	Db *redis.Client
}

// MetricsKey ключ кеша метрик пользователя для версии его истории.
func MetricsKey(userID string, version int64) string {
	return "metrics:" + userID + ":" + strconv.FormatInt(version, 10)
}

// MetricsVersionKey ключ счётчика изменений истории пользователя.
func MetricsVersionKey(userID string) string { return "metrics_version:" + userID }

// SessionKey ключ кеша соответствия сессии пользователю.
func SessionKey(sessionID string) string { return "session:" + sessionID }

// StreakRecordKey ключ рекордной серии пользователя.
func StreakRecordKey(userID string) string { return "streak_record:" + userID }

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает значение по ключу в result. Возвращает false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение. Нулевой expiration означает хранение без срока.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = c.Db.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate удаляет ключи.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	const op = "cache.Invalidate"
	if len(keys) == 0 {
		return nil
	}
	if err := c.Db.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Incr атомарно увеличивает счётчик и возвращает новое значение.
func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	const op = "cache.Incr"
	n, err := c.Db.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// setMaxScript записывает ARGV[1], только если он больше текущего значения ключа.
// Возвращает {1 если записано, предыдущее значение}.
var setMaxScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0') or 0
local value = tonumber(ARGV[1])
if value > current then
	redis.call('SET', KEYS[1], ARGV[1])
	return {1, current}
end
return {0, current}
`)

// SetMax атомарно сохраняет value, если он больше хранимого числа.
// Возвращает предыдущее значение и признак записи.
func (c *Cache) SetMax(ctx context.Context, key string, value int) (int, bool, error) {
	const op = "cache.SetMax"
	res, err := setMaxScript.Run(ctx, c.Db, []string{key}, value).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("%s: unexpected script reply %v", op, res)
	}
	return int(res[1]), res[0] == 1, nil
}

// Close закрывает соединение с redis.
func (c *Cache) Close() error {
	return c.Db.Close()
}

// Nop кеш, который ничего не хранит. Используется, когда redis не настроен.
type Nop struct{}

// Get всегда сообщает об отсутствии ключа.
func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }

// Set ничего не делает.
func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }

// Invalidate ничего не делает.
func (Nop) Invalidate(context.Context, ...string) error { return nil }

// Incr всегда возвращает 0.
func (Nop) Incr(context.Context, string) (int64, error) { return 0, nil }
