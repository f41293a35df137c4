package main

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is the test double selected via dependency injection instead
// of special-case branches in the request handlers. It implements the same
// ownership scoping as the real adapters.
type memoryStore struct {
	mu    sync.RWMutex
	users map[string]*user
	todos map[string]*todo
	seq   map[string]int
	next  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users: make(map[string]*user),
		todos: make(map[string]*todo),
		seq:   make(map[string]int),
	}
}

func (s *memoryStore) createUser(u *user) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return errDuplicateEmail
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	clone := *u
	s.users[u.ID] = &clone
	return nil
}

func (s *memoryStore) getUserByEmail(email string) (*user, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) getUserByID(id string) (*user, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (s *memoryStore) markUserVerified(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.IsVerified = true
	}
	return nil
}

func (s *memoryStore) createTodo(t *todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	clone := *t
	s.todos[t.ID] = &clone
	s.next++
	s.seq[t.ID] = s.next
	return nil
}

func (s *memoryStore) listTodos(ownerID, category string) ([]todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	todos := []todo{}
	for _, t := range s.todos {
		if t.OwnerID != ownerID {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		todos = append(todos, *t)
	}
	// Newest first. Insertion order breaks ties for todos created within the
	// same clock tick.
	sort.Slice(todos, func(i, j int) bool {
		if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].CreatedAt.After(todos[j].CreatedAt)
		}
		return s.seq[todos[i].ID] > s.seq[todos[j].ID]
	})
	return todos, nil
}

func (s *memoryStore) getTodo(ownerID, id string) (*todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.todos[id]
	if !ok || t.OwnerID != ownerID {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (s *memoryStore) updateTodo(ownerID, id string, p todoPatch) (*todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok || t.OwnerID != ownerID {
		return nil, nil
	}
	t.apply(p)
	clone := *t
	return &clone, nil
}

func (s *memoryStore) deleteTodo(ownerID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok || t.OwnerID != ownerID {
		return false, nil
	}
	delete(s.todos, id)
	delete(s.seq, id)
	return true, nil
}
