package store

import (
	"context"
	"errors"

	"sugeria/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("duplicate")
)

// Repository exposes the three recommendation tables plus auth accounts.
// Users and items are treated as read-mostly reference data; interactions
// form an append-only log.
type Repository interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)

	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItemByID(ctx context.Context, id string) (*domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)

	ListInteractions(ctx context.Context) ([]domain.Interaction, error)
	ListInteractionsByUser(ctx context.Context, userID string) ([]domain.Interaction, error)
	CreateInteraction(ctx context.Context, interaction domain.Interaction) (*domain.Interaction, error)

	CreateAccount(ctx context.Context, account domain.Account) error
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccountPassword(ctx context.Context, username string, password string) error
}
