package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"sugeria/backend/internal/domain"
	"sugeria/backend/internal/store"
	"sugeria/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, age, gender, location, spending_tier, interests
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 64)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, age, gender, location, spending_tier, interests
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.ID == "" || user.Name == "" {
		return nil, store.ErrInvalidInput
	}

	interests, err := json.Marshal(user.Interests)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, age, gender, location, spending_tier, interests, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
	`, user.ID, user.Name, user.Age, user.Gender, user.Location, string(user.SpendingTier), interests)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := user
	return &created, nil
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, price_cents, quality, popularity, tags, target_age_min, target_age_max
		FROM items
		ORDER BY category, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 128)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetItemByID(ctx context.Context, id string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, price_cents, quality, popularity, tags, target_age_min, target_age_max
		FROM items
		WHERE id = $1
	`, id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.ID == "" || item.Name == "" || item.Category == "" || item.PriceCents < 0 {
		return nil, store.ErrInvalidInput
	}

	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, category, price_cents, quality, popularity, tags, target_age_min, target_age_max, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
	`, item.ID, item.Name, item.Category, item.PriceCents, item.Quality, item.Popularity, tags, item.TargetAgeMin, item.TargetAgeMax)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) ListInteractions(ctx context.Context) ([]domain.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, kind, rating, occurred_at
		FROM interactions
		ORDER BY occurred_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInteractions(rows)
}

func (s *Store) ListInteractionsByUser(ctx context.Context, userID string) ([]domain.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, kind, rating, occurred_at
		FROM interactions
		WHERE user_id = $1
		ORDER BY occurred_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInteractions(rows)
}

func (s *Store) CreateInteraction(ctx context.Context, interaction domain.Interaction) (*domain.Interaction, error) {
	if interaction.UserID == "" || interaction.ItemID == "" {
		return nil, store.ErrInvalidInput
	}
	if interaction.ID == "" {
		interaction.ID = xid.New("ix")
	}
	if interaction.OccurredAt.IsZero() {
		interaction.OccurredAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (id, user_id, item_id, kind, rating, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, interaction.ID, interaction.UserID, interaction.ItemID, string(interaction.Kind), interaction.Rating, interaction.OccurredAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	created := interaction
	return &created, nil
}

func (s *Store) CreateAccount(ctx context.Context, account domain.Account) error {
	if account.Username == "" {
		return store.ErrInvalidInput
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, account.Username, account.Password, account.Role, account.Active, account.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	return err
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM accounts
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, 16)
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.Username, &a.Password, &a.Role, &a.Active, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.CreatedAt = a.CreatedAt.UTC()
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) UpdateAccountPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var user domain.User
	var tier string
	var interests []byte
	if err := row.Scan(&user.ID, &user.Name, &user.Age, &user.Gender, &user.Location, &tier, &interests); err != nil {
		return domain.User{}, err
	}
	user.SpendingTier = domain.SpendingTier(tier)
	if len(interests) > 0 {
		if err := json.Unmarshal(interests, &user.Interests); err != nil {
			return domain.User{}, err
		}
	}
	return user, nil
}

func scanItem(row rowScanner) (domain.Item, error) {
	var item domain.Item
	var tags []byte
	if err := row.Scan(&item.ID, &item.Name, &item.Category, &item.PriceCents, &item.Quality,
		&item.Popularity, &tags, &item.TargetAgeMin, &item.TargetAgeMax); err != nil {
		return domain.Item{}, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &item.Tags); err != nil {
			return domain.Item{}, err
		}
	}
	return item, nil
}

func collectInteractions(rows *sql.Rows) ([]domain.Interaction, error) {
	interactions := make([]domain.Interaction, 0, 256)
	for rows.Next() {
		var ix domain.Interaction
		var kind string
		if err := rows.Scan(&ix.ID, &ix.UserID, &ix.ItemID, &kind, &ix.Rating, &ix.OccurredAt); err != nil {
			return nil, err
		}
		ix.Kind = domain.InteractionKind(kind)
		ix.OccurredAt = ix.OccurredAt.UTC()
		interactions = append(interactions, ix)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return interactions, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
