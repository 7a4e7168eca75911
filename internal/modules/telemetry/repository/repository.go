package repository

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"greenhouse-server/internal/modules/telemetry/types"
)

//go:embed sql/get-snapshot.sql
var getSnapshotSQL string

//go:embed sql/upsert-snapshot.sql
var upsertSnapshotSQL string

// snapshotKey is the fixed namespace under which the single last-known-good
// snapshot is stored.
const snapshotKey = "telemetry.snapshot"

// ErrNoSnapshot is returned by Load when nothing has been cached yet.
var ErrNoSnapshot = errors.New("no cached snapshot")

// CacheRepository persists the last-known-good telemetry snapshot. It is
// written only on healthy online fetches and read only when a fetch fails.
type CacheRepository interface {
	Save(snapshot types.CacheSnapshot) error
	Load() (types.CacheSnapshot, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) CacheRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Save(snapshot types.CacheSnapshot) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	updatedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := r.db.Exec(upsertSnapshotSQL, snapshotKey, string(body), updatedAt); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *repositoryImpl) Load() (types.CacheSnapshot, error) {
	var body string
	err := r.db.QueryRow(getSnapshotSQL, snapshotKey).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.CacheSnapshot{}, ErrNoSnapshot
		}
		return types.CacheSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	var snapshot types.CacheSnapshot
	if err := json.Unmarshal([]byte(body), &snapshot); err != nil {
		return types.CacheSnapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}
