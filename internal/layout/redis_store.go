package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/certstudio/backend/internal/models"
)

// HashClient is the subset of the redis client used for presets.
type HashClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
}

// RedisStore keeps presets as JSON values in one redis hash keyed by id.
type RedisStore struct {
	client HashClient
	key    string
}

// RedisOptions locate the preset hash.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisClient opens a redis client for the preset store.
func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// NewRedisStore stores presets under "<prefix>presets".
func NewRedisStore(client HashClient, prefix string) *RedisStore {
	return &RedisStore{client: client, key: prefix + "presets"}
}

func (s *RedisStore) List(ctx context.Context) ([]*models.LayoutPreset, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	out := make([]*models.LayoutPreset, 0, len(all))
	for id, raw := range all {
		p, err := unmarshalPreset(id, raw)
		if err != nil {
			fmt.Printf("[Layout] Skipping redis preset %s: %v\n", id, err)
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.LayoutPreset, error) {
	raw, err := s.client.HGet(ctx, s.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading preset %s: %w", id, err)
	}
	return unmarshalPreset(id, raw)
}

func (s *RedisStore) Save(ctx context.Context, p *models.LayoutPreset) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key, p.ID, string(data)).Err(); err != nil {
		return fmt.Errorf("saving preset %s: %w", p.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.HDel(ctx, s.key, id).Result()
	if err != nil {
		return fmt.Errorf("deleting preset %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	return nil
}

func unmarshalPreset(id, raw string) (*models.LayoutPreset, error) {
	var p models.LayoutPreset
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	p.ID = id
	return &p, nil
}
