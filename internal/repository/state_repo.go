package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-wanandroid/internal/storage"
)

// StateRepository persists client state in the state_kv table. It satisfies
// storage.Store so it can stand in for the embedded backend.
type StateRepository struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*StateRepository)(nil)

func NewStateRepository(pool *pgxpool.Pool) *StateRepository {
	return &StateRepository{pool: pool}
}

func (r *StateRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.pool.QueryRow(ctx, `SELECT value FROM state_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get state %q: %w", key, err)
	}
	return value, true, nil
}

func (r *StateRepository) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO state_kv (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("set state %q: %w", key, err)
	}
	return nil
}

func (r *StateRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM state_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete state %q: %w", key, err)
	}
	return nil
}

func (r *StateRepository) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT key, value FROM state_kv WHERE key LIKE $1 ESCAPE '\' ORDER BY key`,
		likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("list state %q: %w", prefix, err)
	}
	defer rows.Close()

	out := map[string][]byte{}
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

func (r *StateRepository) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM state_kv WHERE key LIKE $1 ESCAPE '\'`, likePrefix(prefix))
	if err != nil {
		return fmt.Errorf("delete state prefix %q: %w", prefix, err)
	}
	return nil
}

// Close is a no-op; the pool belongs to database.DB.
func (r *StateRepository) Close() error {
	return nil
}

func likePrefix(prefix string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return escaper.Replace(prefix) + "%"
}
