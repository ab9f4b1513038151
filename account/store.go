package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"go.aimuz.me/hober/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	email          TEXT NOT NULL UNIQUE,
	password_hash  TEXT,
	google_id      TEXT,
	name           TEXT,
	image          TEXT,
	target_language TEXT NOT NULL DEFAULT 'ja',
	email_verified INTEGER NOT NULL DEFAULT 0
);
`

// Store holds user accounts in SQLite.
type Store struct {
	db *sql.DB
}

// record is a users row including the password hash.
type record struct {
	types.User
	PasswordHash string
}

// OpenStore opens (creating if needed) the account database at path. Use
// ":memory:" for a private in-memory database.
func OpenStore(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database exists per connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// byEmail returns the user with email, or nil.
func (s *Store) byEmail(ctx context.Context, email string) (*record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, google_id, name, image, target_language, email_verified
		FROM users
		WHERE email = ?
	`, email)

	var r record
	var hash, googleID, name, image sql.NullString
	if err := row.Scan(&r.ID, &r.Email, &hash, &googleID, &name, &image,
		&r.TargetLang, &r.EmailVerified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	r.PasswordHash = hash.String
	r.GoogleID = googleID.String
	r.Name = name.String
	r.Image = image.String
	return &r, nil
}

func (s *Store) insert(ctx context.Context, r record) (types.User, error) {
	r.ID = uuid.NewString()
	if r.TargetLang == "" {
		r.TargetLang = types.DefaultTargetLanguage
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, google_id, name, image, target_language, email_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Email, nullString(r.PasswordHash), nullString(r.GoogleID),
		nullString(r.Name), nullString(r.Image), r.TargetLang, r.EmailVerified)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrUserExists
		}
		return types.User{}, fmt.Errorf("insert user: %w", err)
	}
	return r.User, nil
}

func (s *Store) updateGoogle(ctx context.Context, id string, p GoogleProfile) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, image = ?, google_id = ?, email_verified = 1
		WHERE id = ?
	`, nullString(p.Name), nullString(p.Picture), nullString(p.Subject), id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *Store) setTargetLanguage(ctx context.Context, email, lang string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET target_language = ? WHERE email = ?`, lang, email)
	if err != nil {
		return false, fmt.Errorf("update target language: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update target language: %w", err)
	}
	return n > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
