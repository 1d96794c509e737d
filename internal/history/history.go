// Package history persists finished exchanges so conversations survive
// process restarts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Exchange is one finished question/answer pair.
type Exchange struct {
	ID             string
	ConversationID string
	Question       string
	Answer         string
	Kind           string
	CreatedAt      time.Time
}

// Store keeps exchanges in a SQLite database.
type Store struct {
	db      *sql.DB
	entropy *rand.Rand
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, entropy: rand.New(rand.NewSource(time.Now().UnixNano()))}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		question        TEXT NOT NULL,
		answer          TEXT NOT NULL,
		kind            TEXT NOT NULL DEFAULT 'text',
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_conversation ON exchanges(conversation_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Save stores one exchange and returns its assigned id.
func (s *Store) Save(ctx context.Context, ex Exchange) (string, error) {
	id := s.newID()
	created := ex.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	kind := ex.Kind
	if kind == "" {
		kind = "text"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, conversation_id, question, answer, kind, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, ex.ConversationID, ex.Question, ex.Answer, kind, created.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("save exchange: %w", err)
	}
	return id, nil
}

// Recent returns up to limit exchanges for a conversation, oldest first. An
// empty conversationID returns exchanges across all conversations.
func (s *Store) Recent(ctx context.Context, conversationID string, limit int) ([]Exchange, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, conversation_id, question, answer, kind, created_at FROM exchanges`
	args := []any{}
	if conversationID != "" {
		query += ` WHERE conversation_id = ?`
		args = append(args, conversationID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var ex Exchange
		var created string
		if err := rows.Scan(&ex.ID, &ex.ConversationID, &ex.Question, &ex.Answer, &ex.Kind, &created); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		ex.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse to oldest-first for display
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Clear deletes the exchanges of one conversation, or everything when
// conversationID is empty.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		_, err := s.db.ExecContext(ctx, `DELETE FROM exchanges`)
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE conversation_id = ?`, conversationID)
	return err
}
