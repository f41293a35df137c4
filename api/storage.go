package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var errDuplicateEmail = errors.New("email already registered")

// store is the persistence contract shared by the postgres, sqlite and
// in-memory adapters. Lookups return (nil, nil) when no row matches, and
// every todo operation is scoped by owner id so that a record owned by
// someone else is indistinguishable from a missing one.
type store interface {
	createUser(u *user) error
	getUserByEmail(email string) (*user, error)
	getUserByID(id string) (*user, error)
	markUserVerified(id string) error

	createTodo(t *todo) error
	listTodos(ownerID, category string) ([]todo, error)
	getTodo(ownerID, id string) (*todo, error)
	updateTodo(ownerID, id string, p todoPatch) (*todo, error)
	deleteTodo(ownerID, id string) (bool, error)
}

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}

type postgresStore struct {
	db *sql.DB
}

func newPostgresStore(db *sql.DB) *postgresStore {
	return &postgresStore{db: db}
}

func (s *postgresStore) createUser(u *user) error {
	query := `INSERT INTO users (id, email, password_hash, is_verified)
			  VALUES ($1, $2, $3, $4)
			  RETURNING created_at`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	u.ID = uuid.NewString()
	row := s.db.QueryRowContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.IsVerified)
	err := row.Scan(&u.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return errDuplicateEmail
	}
	return err
}

func (s *postgresStore) getUserByEmail(email string) (*user, error) {
	query := `SELECT id, created_at, email, password_hash, is_verified
			  FROM users
			  WHERE email = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, email)
	return scanUser(row)
}

func (s *postgresStore) getUserByID(id string) (*user, error) {
	query := `SELECT id, created_at, email, password_hash, is_verified
			  FROM users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*user, error) {
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Email, &u.PasswordHash, &u.IsVerified)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *postgresStore) markUserVerified(id string) error {
	query := `UPDATE users SET is_verified = true
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

func (s *postgresStore) createTodo(t *todo) error {
	query := `INSERT INTO todos (id, user_id, text, category, completed)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING created_at`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.ID = uuid.NewString()
	row := s.db.QueryRowContext(ctx, query, t.ID, t.OwnerID, t.Text, t.Category, t.Completed)
	return row.Scan(&t.CreatedAt)
}

func (s *postgresStore) listTodos(ownerID, category string) ([]todo, error) {
	query := `SELECT id, created_at, user_id, text, category, completed
			  FROM todos
			  WHERE user_id = $1 AND ($2 = '' OR category = $2)
			  ORDER BY created_at DESC, id`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, ownerID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []todo{}
	for rows.Next() {
		var t todo
		err := rows.Scan(&t.ID, &t.CreatedAt, &t.OwnerID, &t.Text, &t.Category, &t.Completed)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (s *postgresStore) getTodo(ownerID, id string) (*todo, error) {
	query := `SELECT id, created_at, user_id, text, category, completed
			  FROM todos
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, id, ownerID)
	var t todo
	err := row.Scan(&t.ID, &t.CreatedAt, &t.OwnerID, &t.Text, &t.Category, &t.Completed)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &t, nil
}

func (s *postgresStore) updateTodo(ownerID, id string, p todoPatch) (*todo, error) {
	// Ownership check first: a todo owned by someone else must look exactly
	// like a missing todo.
	t, err := s.getTodo(ownerID, id)
	if err != nil || t == nil {
		return nil, err
	}
	t.apply(p)

	query := `UPDATE todos SET text = $1, category = $2, completed = $3
			  WHERE id = $4 AND user_id = $5`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = s.db.ExecContext(ctx, query, t.Text, t.Category, t.Completed, id, ownerID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *postgresStore) deleteTodo(ownerID, id string) (bool, error) {
	query := `DELETE FROM todos
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (t *todo) apply(p todoPatch) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
