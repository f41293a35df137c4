package main

import "time"

type user struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	IsVerified   bool      `json:"-"`
}

type todo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	OwnerID   string    `json:"user_id"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	Completed bool      `json:"completed"`
}

// todoPatch carries a partial update. A nil field means "leave unchanged".
type todoPatch struct {
	Text      *string `json:"text"`
	Category  *string `json:"category"`
	Completed *bool   `json:"completed"`
}

const defaultCategory = "personal"
