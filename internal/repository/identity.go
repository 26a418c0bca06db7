package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository persists the durable player record behind a session ID,
// so a reconnecting socket picks up the same user and username.
type IdentityRepository interface {
	CreateOrUpdate(ctx context.Context, identity *entity.Identity) error
	GetByID(ctx context.Context, id string) (*entity.Identity, error)
}

type dbIdentity struct {
	client *redis.Client
}

func NewIdentityRepository(client *redis.Client) IdentityRepository {
	return &dbIdentity{client: client}
}

func identityKey(id string) string {
	return "identity:" + id
}

func (that *dbIdentity) CreateOrUpdate(ctx context.Context, identity *entity.Identity) error {
	blob, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}

	if err = that.client.Set(ctx, identityKey(identity.ID), blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to store identity %s: %w", identity.ID, err)
	}

	return nil
}

func (that *dbIdentity) GetByID(ctx context.Context, id string) (*entity.Identity, error) {
	blob, err := that.client.Get(ctx, identityKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity %s: %w", id, err)
	}

	var identity entity.Identity
	if err = json.Unmarshal(blob, &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity %s: %w", id, err)
	}

	return &identity, nil
}
