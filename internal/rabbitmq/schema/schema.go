package schema

import (
	"encoding/json"
	"time"
)

type PasswordResetLink struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (l *PasswordResetLink) Marshal() ([]byte, error) {
	return json.Marshal(l)
}

func (l *PasswordResetLink) Unmarshal(data []byte) error {
	return json.Unmarshal(data, l)
}
