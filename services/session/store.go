package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"masu/models"
	"masu/utils"
)

// RedisSnapshotStore keeps one interrupted-session snapshot per identity,
// overwritten on every save and expiring after the retention window.
type RedisSnapshotStore struct {
	TTL time.Duration
}

func NewRedisSnapshotStore() *RedisSnapshotStore {
	return &RedisSnapshotStore{TTL: 7 * 24 * time.Hour}
}

func snapshotKey(identityID string) string {
	return fmt.Sprintf("wizard:snapshot:%s", identityID)
}

func (s *RedisSnapshotStore) Save(ctx context.Context, identityID string, snap models.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	client := utils.GetSnapshotCacheClient()
	if err := client.Set(ctx, snapshotKey(identityID), data, s.TTL).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Load(ctx context.Context, identityID string) (*models.SessionSnapshot, error) {
	client := utils.GetSnapshotCacheClient()
	data, err := client.Get(ctx, snapshotKey(identityID)).Bytes()
	if err != nil {
		if utils.IsCacheMiss(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap models.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, identityID string) error {
	client := utils.GetSnapshotCacheClient()
	if err := client.Del(ctx, snapshotKey(identityID)).Err(); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// RedisHandleStore binds a client continuity key to a guest handle. The
// binding is long lived; it is what lets a returning visitor be recognized.
type RedisHandleStore struct {
	TTL time.Duration
}

func NewRedisHandleStore() *RedisHandleStore {
	return &RedisHandleStore{TTL: 180 * 24 * time.Hour}
}

func handleKey(clientKey string) string {
	return fmt.Sprintf("wizard:handle:%s", clientKey)
}

func (s *RedisHandleStore) Save(ctx context.Context, clientKey string, handle models.GuestIdentityHandle) error {
	// The secret never lands in the store, only its owner keeps it.
	stored := models.GuestIdentityHandle{ID: handle.ID}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal handle: %w", err)
	}
	client := utils.GetHandleCacheClient()
	if err := client.Set(ctx, handleKey(clientKey), data, s.TTL).Err(); err != nil {
		return fmt.Errorf("save handle: %w", err)
	}
	return nil
}

func (s *RedisHandleStore) Load(ctx context.Context, clientKey string) (*models.GuestIdentityHandle, error) {
	client := utils.GetHandleCacheClient()
	data, err := client.Get(ctx, handleKey(clientKey)).Bytes()
	if err != nil {
		if utils.IsCacheMiss(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load handle: %w", err)
	}
	var handle models.GuestIdentityHandle
	if err := json.Unmarshal(data, &handle); err != nil {
		return nil, fmt.Errorf("decode handle: %w", err)
	}
	return &handle, nil
}

func (s *RedisHandleStore) Clear(ctx context.Context, clientKey string) error {
	client := utils.GetHandleCacheClient()
	if err := client.Del(ctx, handleKey(clientKey)).Err(); err != nil {
		return fmt.Errorf("clear handle: %w", err)
	}
	return nil
}
