package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/quizwhiz/internal/db/store"
)

type clientStore interface {
	CreateClient(ctx context.Context, arg store.CreateClientParams) (store.Client, error)
	TouchClient(ctx context.Context, clientID pgtype.UUID) error
}

// ClientRepository records the anonymous clients that hold tokens.
type ClientRepository struct {
	store clientStore
}

func NewClientRepository(store clientStore) *ClientRepository {
	return &ClientRepository{store: store}
}

// Create inserts a new client row.
func (r *ClientRepository) Create(ctx context.Context, clientID uuid.UUID, displayName string) (store.Client, error) {
	params := store.CreateClientParams{
		ClientID:    pgUUID(clientID),
		DisplayName: pgtype.Text{String: displayName, Valid: displayName != ""},
	}
	client, err := r.store.CreateClient(ctx, params)
	if err != nil {
		return store.Client{}, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// Touch bumps last_seen_at.
func (r *ClientRepository) Touch(ctx context.Context, clientID uuid.UUID) error {
	return r.store.TouchClient(ctx, pgUUID(clientID))
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
