package main

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// sqliteStore is the embedded backend strategy: the same contract as the
// postgres adapter with no external service to run.
type sqliteStore struct {
	db *sql.DB
}

func newSQLiteStore(path string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &sqliteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStore) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash BLOB NOT NULL,
			is_verified INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS todos (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'personal',
			completed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS todos_user_id_idx ON todos (user_id, created_at DESC)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) createUser(u *user) error {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	_, err := s.db.Exec(`INSERT INTO users (id, created_at, email, password_hash, is_verified) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.CreatedAt.Format(time.RFC3339Nano), u.Email, u.PasswordHash, u.IsVerified)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return errDuplicateEmail
	}
	return err
}

func (s *sqliteStore) getUserByEmail(email string) (*user, error) {
	row := s.db.QueryRow(`SELECT id, created_at, email, password_hash, is_verified FROM users WHERE email = ?`, email)
	return s.scanUser(row)
}

func (s *sqliteStore) getUserByID(id string) (*user, error) {
	row := s.db.QueryRow(`SELECT id, created_at, email, password_hash, is_verified FROM users WHERE id = ?`, id)
	return s.scanUser(row)
}

func (s *sqliteStore) scanUser(row *sql.Row) (*user, error) {
	var u user
	var createdAt string
	err := row.Scan(&u.ID, &createdAt, &u.Email, &u.PasswordHash, &u.IsVerified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	return &u, err
}

func (s *sqliteStore) markUserVerified(id string) error {
	_, err := s.db.Exec(`UPDATE users SET is_verified = 1 WHERE id = ?`, id)
	return err
}

func (s *sqliteStore) createTodo(t *todo) error {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	_, err := s.db.Exec(`INSERT INTO todos (id, created_at, user_id, text, category, completed) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.CreatedAt.Format(time.RFC3339Nano), t.OwnerID, t.Text, t.Category, t.Completed)
	return err
}

func (s *sqliteStore) listTodos(ownerID, category string) ([]todo, error) {
	rows, err := s.db.Query(`SELECT id, created_at, user_id, text, category, completed
			  FROM todos
			  WHERE user_id = ? AND (? = '' OR category = ?)
			  ORDER BY created_at DESC, id`, ownerID, category, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []todo{}
	for rows.Next() {
		var t todo
		var createdAt string
		err := rows.Scan(&t.ID, &createdAt, &t.OwnerID, &t.Text, &t.Category, &t.Completed)
		if err != nil {
			return nil, err
		}
		t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (s *sqliteStore) getTodo(ownerID, id string) (*todo, error) {
	row := s.db.QueryRow(`SELECT id, created_at, user_id, text, category, completed
			  FROM todos
			  WHERE id = ? AND user_id = ?`, id, ownerID)
	var t todo
	var createdAt string
	err := row.Scan(&t.ID, &createdAt, &t.OwnerID, &t.Text, &t.Category, &t.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	return &t, err
}

func (s *sqliteStore) updateTodo(ownerID, id string, p todoPatch) (*todo, error) {
	t, err := s.getTodo(ownerID, id)
	if err != nil || t == nil {
		return nil, err
	}
	t.apply(p)
	_, err = s.db.Exec(`UPDATE todos SET text = ?, category = ?, completed = ? WHERE id = ? AND user_id = ?`,
		t.Text, t.Category, t.Completed, id, ownerID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *sqliteStore) deleteTodo(ownerID, id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM todos WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
