package pgstore

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a Postgres-backed core.Store holding one row per (device, key).
// Used by installations that keep device state server-side; the table is
// created by migrations/postgres.
type Store struct {
	pg     *pgxpool.Pool
	schema string
	device string
}

// New binds a store to the given device identifier. Schema defaults to
// "licensing".
func New(pg *pgxpool.Pool, schema, deviceID string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "licensing"
	}
	return &Store{pg: pg, schema: s, device: deviceID}
}

func (s *Store) table() string { return s.schema + ".device_state" }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.pg == nil {
		return nil, false, nil
	}
	var val []byte
	err := s.pg.QueryRow(ctx,
		`SELECT value FROM `+s.table()+` WHERE device_id=$1 AND key=$2`,
		s.device, key).Scan(&val)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.pg == nil {
		return nil
	}
	_, err := s.pg.Exec(ctx,
		`INSERT INTO `+s.table()+` (device_id, key, value, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (device_id, key) DO UPDATE SET value=$3, updated_at=NOW()`,
		s.device, key, value)
	return err
}

func (s *Store) Del(ctx context.Context, key string) error {
	if s.pg == nil {
		return nil
	}
	_, err := s.pg.Exec(ctx,
		`DELETE FROM `+s.table()+` WHERE device_id=$1 AND key=$2`,
		s.device, key)
	return err
}
