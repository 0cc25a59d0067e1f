package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"heartrisk/dataset"
)

// Store persists scored predictions and training runs in SQLite.
type Store struct {
	database *sql.DB
}

// Open opens (and migrates) the SQLite database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		database.SetMaxOpenConns(1)
	}

	store := &Store{database: database}
	if err := store.migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id TEXT PRIMARY KEY,
        schema_version VARCHAR(20) NOT NULL,
        probability REAL NOT NULL,
        record TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY,
        model_name VARCHAR(50),
        schema_version VARCHAR(20),
        accuracy REAL,
        precision REAL,
        recall REAL,
        trained_at DATETIME,
        data_points INTEGER
    );
    `
	_, err := s.database.Exec(query)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.database.Close()
}

type PredictionRecord struct {
	ID            string         `json:"id"`
	SchemaVersion string         `json:"schema_version"`
	Probability   float64        `json:"probability"`
	Record        dataset.Record `json:"record"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (s *Store) SavePrediction(ctx context.Context, p PredictionRecord) error {
	if p.ID == "" {
		return errors.New("prediction id required")
	}
	payload, err := json.Marshal(p.Record)
	if err != nil {
		return err
	}
	_, err = s.database.ExecContext(ctx, `
        INSERT INTO predictions (id, schema_version, probability, record, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.SchemaVersion, p.Probability, string(payload), p.CreatedAt.UTC())
	return err
}

// RecentPredictions returns up to limit predictions, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.database.QueryContext(ctx, `
        SELECT id, schema_version, probability, record, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]PredictionRecord, 0)
	for rows.Next() {
		var p PredictionRecord
		var record string
		if err := rows.Scan(&p.ID, &p.SchemaVersion, &p.Probability, &record, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(record), &p.Record); err != nil {
			return nil, fmt.Errorf("prediction %s: %w", p.ID, err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

type TrainingLog struct {
	ModelName     string    `json:"model_name"`
	SchemaVersion string    `json:"schema_version"`
	Accuracy      float64   `json:"accuracy"`
	Precision     float64   `json:"precision"`
	Recall        float64   `json:"recall"`
	TrainedAt     time.Time `json:"trained_at"`
	DataPoints    int       `json:"data_points"`
}

func (s *Store) SaveTrainingLog(ctx context.Context, log TrainingLog) error {
	_, err := s.database.ExecContext(ctx, `
        INSERT INTO training_log (model_name, schema_version, accuracy, precision, recall, trained_at, data_points)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ModelName, log.SchemaVersion, log.Accuracy, log.Precision, log.Recall, log.TrainedAt.UTC(), log.DataPoints)
	return err
}

func (s *Store) LoadTrainingLog(ctx context.Context) ([]TrainingLog, error) {
	rows, err := s.database.QueryContext(ctx, `
        SELECT model_name, schema_version, accuracy, precision, recall, trained_at, data_points
        FROM training_log
        ORDER BY trained_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.ModelName, &log.SchemaVersion, &log.Accuracy, &log.Precision, &log.Recall, &log.TrainedAt, &log.DataPoints); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
