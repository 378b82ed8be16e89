// Package storage persists the canonical deal list in a local SQLite file.
// It is the single source of truth; views operate on derived copies and all
// mutations flow back through Create/Update/Replace.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"pipeterm/internal/pipeline"
)

const driverName = "sqlite3"

var (
	// ErrNotFound indicates the requested deal does not exist.
	ErrNotFound = errors.New("deal not found")
	// ErrTerminalStage indicates a move out of Closed Won or Closed Lost.
	ErrTerminalStage = errors.New("closed deals cannot change stage")
	// ErrBadTransition indicates a stage move the allow-list rejects.
	ErrBadTransition = errors.New("stage move not allowed")
)

// Store wraps the SQLite database holding the deal list.
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Open bootstraps the store at the default data path.
func Open(ctx context.Context, log *zap.Logger) (*Store, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(ctx, path, log)
}

// OpenPath bootstraps the store at an explicit path. Tests use this with a
// temp directory.
func OpenPath(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &Store{db: db, path: path, log: log}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases DB resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func resolveDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.Getenv("HOME")
		if base == "" {
			return "", fmt.Errorf("cannot resolve data dir: %w", err)
		}
	}
	dir := filepath.Join(base, "pipeterm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return filepath.Join(dir, "pipeterm.db"), nil
}

func (s *Store) migrate(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS deals (
        id TEXT PRIMARY KEY,
        position INTEGER NOT NULL,
        company TEXT NOT NULL,
        contact_person TEXT,
        description TEXT,
        value REAL NOT NULL DEFAULT 0,
        probability INTEGER NOT NULL DEFAULT 0,
        stage TEXT NOT NULL,
        priority TEXT NOT NULL,
        assignees TEXT,
        due_date TEXT,
        days_in_stage INTEGER NOT NULL DEFAULT 0,
        comments INTEGER NOT NULL DEFAULT 0,
        attachments INTEGER NOT NULL DEFAULT 0,
        created_by TEXT,
        created_at TEXT,
        updated_by TEXT,
        updated_at TEXT
    );`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Load returns the persisted list in order. It never fails: a missing or
// unreadable store reads as empty, with the cause logged only.
func (s *Store) Load(ctx context.Context) []pipeline.Deal {
	rows, err := s.db.QueryContext(ctx, `SELECT id, company, contact_person, description, value,
        probability, stage, priority, assignees, due_date, days_in_stage, comments, attachments,
        created_by, created_at, updated_by, updated_at
        FROM deals ORDER BY position ASC`)
	if err != nil {
		s.log.Warn("load deals failed, treating as empty", zap.Error(err))
		return nil
	}
	defer rows.Close()

	var deals []pipeline.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			s.log.Warn("skipping unreadable deal row", zap.Error(err))
			continue
		}
		deals = append(deals, deal)
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("deal rows", zap.Error(err))
	}
	return deals
}

// Save overwrites the persisted list with the given deals, preserving order.
func (s *Store) Save(ctx context.Context, deals []pipeline.Deal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM deals`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear deals: %w", err)
	}
	const insert = `INSERT INTO deals (id, position, company, contact_person, description, value,
        probability, stage, priority, assignees, due_date, days_in_stage, comments, attachments,
        created_by, created_at, updated_by, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, d := range deals {
		if _, err := tx.ExecContext(ctx, insert,
			d.ID, i, d.Company, nullString(d.ContactPerson), nullString(d.Description), d.Value,
			d.Probability, string(d.Stage), string(d.Priority), marshalAssignees(d.Assignees),
			nullString(d.DueDate), d.DaysInStage, d.Comments, d.Attachments,
			nullString(d.CreatedBy), timeString(d.CreatedAt), nullString(d.UpdatedBy), timeString(d.UpdatedAt),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert deal %s: %w", d.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Create prepends a new deal, persists and returns the updated list.
func (s *Store) Create(ctx context.Context, deal pipeline.Deal) ([]pipeline.Deal, error) {
	if strings.TrimSpace(deal.Company) == "" {
		return nil, fmt.Errorf("deal company required")
	}
	if deal.ID == "" {
		deal.ID = pipeline.NewID()
	}
	deals := append([]pipeline.Deal{deal}, s.Load(ctx)...)
	if err := s.Save(ctx, deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// Patch holds the optional fields Update merges into an existing deal.
type Patch struct {
	Stage       *pipeline.Stage
	Priority    *pipeline.Priority
	Value       *float64
	Probability *int
	DaysInStage *int
	Description *string
	DueDate     *string
	UpdatedBy   string
}

// Update merges a patch into the deal matching id, persists and returns the
// updated list. A missing id is a no-op, matching the page's behavior.
func (s *Store) Update(ctx context.Context, id string, patch Patch) ([]pipeline.Deal, error) {
	deals := s.Load(ctx)
	for i := range deals {
		if deals[i].ID != id {
			continue
		}
		applyPatch(&deals[i], patch)
		if err := s.Save(ctx, deals); err != nil {
			return nil, err
		}
		return deals, nil
	}
	return deals, nil
}

// Replace unconditionally overwrites the list.
func (s *Store) Replace(ctx context.Context, deals []pipeline.Deal) ([]pipeline.Deal, error) {
	if err := s.Save(ctx, deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// MoveStage applies the transition guard and rewrites a deal's stage,
// restarting its stage clock. Same-stage moves return the list unchanged.
func (s *Store) MoveStage(ctx context.Context, id string, target pipeline.Stage, actor string) ([]pipeline.Deal, error) {
	deals := s.Load(ctx)
	for i := range deals {
		if deals[i].ID != id {
			continue
		}
		from := deals[i].Stage
		if from == target {
			return deals, nil
		}
		if pipeline.IsTerminal(from) {
			return deals, ErrTerminalStage
		}
		if !pipeline.CanTransition(from, target) {
			return deals, ErrBadTransition
		}
		stage := target
		days := 0
		updated, err := s.Update(ctx, id, Patch{Stage: &stage, DaysInStage: &days, UpdatedBy: actor})
		if err != nil {
			return deals, err
		}
		s.log.Info("deal moved",
			zap.String("id", id),
			zap.String("from", string(from)),
			zap.String("to", string(target)))
		return updated, nil
	}
	return deals, ErrNotFound
}

func applyPatch(d *pipeline.Deal, p Patch) {
	if p.Stage != nil {
		d.Stage = *p.Stage
	}
	if p.Priority != nil {
		d.Priority = *p.Priority
	}
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.Probability != nil {
		d.Probability = *p.Probability
	}
	if p.DaysInStage != nil {
		d.DaysInStage = *p.DaysInStage
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.DueDate != nil {
		d.DueDate = *p.DueDate
	}
	if p.UpdatedBy != "" {
		d.UpdatedBy = p.UpdatedBy
	}
	d.UpdatedAt = time.Now().UTC()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(rs rowScanner) (pipeline.Deal, error) {
	var d pipeline.Deal
	var contact, description, assignees, dueDate, createdBy, createdAt, updatedBy, updatedAt sql.NullString
	var stage, priority string
	if err := rs.Scan(&d.ID, &d.Company, &contact, &description, &d.Value,
		&d.Probability, &stage, &priority, &assignees, &dueDate, &d.DaysInStage,
		&d.Comments, &d.Attachments, &createdBy, &createdAt, &updatedBy, &updatedAt); err != nil {
		return pipeline.Deal{}, err
	}
	d.ContactPerson = contact.String
	d.Description = description.String
	d.Stage = pipeline.Stage(stage)
	d.Priority = pipeline.Priority(priority)
	d.DueDate = dueDate.String
	d.CreatedBy = createdBy.String
	d.UpdatedBy = updatedBy.String
	if assignees.Valid && assignees.String != "" {
		if err := json.Unmarshal([]byte(assignees.String), &d.Assignees); err != nil {
			d.Assignees = nil
		}
	}
	if t, err := time.Parse(time.RFC3339, createdAt.String); err == nil {
		d.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt.String); err == nil {
		d.UpdatedAt = t
	}
	return d, nil
}

func marshalAssignees(assignees []pipeline.Assignee) interface{} {
	if len(assignees) == 0 {
		return nil
	}
	bytes, err := json.Marshal(assignees)
	if err != nil {
		return nil
	}
	return string(bytes)
}

func nullString(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func timeString(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
