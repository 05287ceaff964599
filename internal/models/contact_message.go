package models

import (
	"time"

	"github.com/google/uuid"
)

type ContactMessage struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Subject   *string   `json:"subject,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Operator — аутентифицированный сотрудник бэк-офиса.
type Operator struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}
