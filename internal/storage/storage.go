package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/1ilseok/briefit/internal/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	runsCacheKey = "briefit:runs:list"
	runsCacheTTL = 5 * time.Minute
	lockKey      = "briefit:run:lock"

	defaultRunsLimit = 20
)

// ErrLockHeld 已有一次运行在进行中
var ErrLockHeld = errors.New("run lock held")

// RunRecord 只记录一次运行的元数据，不保存任何条目内容
type RunRecord struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	Trigger    string            `gorm:"size:16;index" json:"trigger"` // cron / cli / api
	Status     string            `gorm:"size:16;index" json:"status"`  // delivered / empty / failed / preview
	StartedAt  time.Time         `gorm:"index" json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	ItemCounts datatypes.JSONMap `gorm:"type:jsonb" json:"itemCounts"`
	Failures   datatypes.JSONMap `gorm:"type:jsonb" json:"failures"`
	Fallbacks  datatypes.JSONMap `gorm:"type:jsonb" json:"fallbacks"`
	MessageID  string            `gorm:"size:128" json:"messageId,omitempty"`
	Error      string            `gorm:"size:1024" json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Store 运行日志 (Postgres) 与运行锁 (Redis)，两者都是可选的
type Store struct {
	DB    *gorm.DB
	Redis *redis.Client

	local sync.Mutex // 没有 Redis 时的进程内锁
}

// NewStore dsn / redisAddr 为空时对应功能退化为空操作
func NewStore(dsn, redisAddr string) (*Store, error) {
	s := &Store{}

	if dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.AutoMigrate(&RunRecord{}); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		s.DB = db
	}

	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", redisAddr).Msg("redis ping failed")
		}
		s.Redis = rdb
	}

	return s, nil
}

// SaveRun 写入运行记录并清掉列表缓存
func (s *Store) SaveRun(ctx context.Context, rec *RunRecord) error {
	if s == nil || s.DB == nil {
		return nil
	}
	rec.Error = truncateRunes(strings.ToValidUTF8(rec.Error, "�"), 1024)
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	if s.Redis != nil {
		_ = s.Redis.Del(ctx, runsCacheKey).Err()
	}
	return nil
}

// ListRuns 最近的运行记录，按开始时间倒序；Redis 做短 TTL 缓存
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if s == nil || s.DB == nil {
		return []RunRecord{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = defaultRunsLimit
	}

	// 只缓存默认页，SaveRun 删除同一个 key 即可失效
	cached := s.Redis != nil && limit == defaultRunsLimit
	if cached {
		if bs, err := s.Redis.Get(ctx, runsCacheKey).Bytes(); err == nil {
			var runs []RunRecord
			if err := json.Unmarshal(bs, &runs); err == nil {
				return runs, nil
			}
		}
	}

	var list []RunRecord
	if err := s.DB.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}

	if cached && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, runsCacheKey, bs, runsCacheTTL).Err()
		}
	}
	return list, nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireRunLock 防止 cron 与手动触发重叠发送。
// 返回的 release 只会释放自己持有的锁。
func (s *Store) AcquireRunLock(ctx context.Context, ttl time.Duration) (func(context.Context) error, error) {
	if s.Redis == nil {
		return s.localLock()
	}

	token := uuid.NewString()
	ok, err := s.Redis.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		// Redis 不可达时退回进程内锁，至少挡住本进程内的重叠运行
		logger.Warn().Err(err).Msg("redis run lock unavailable, fall back to local lock")
		return s.localLock()
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, s.Redis, []string{lockKey}, token).Err()
	}, nil
}

func (s *Store) localLock() (func(context.Context) error, error) {
	if !s.local.TryLock() {
		return nil, ErrLockHeld
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(s.local.Unlock)
		return nil
	}, nil
}

func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
