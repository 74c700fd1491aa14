package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64           `json:"id" yaml:"id"`
	Email     string          `json:"email" yaml:"email"`
	Name      string          `json:"name" yaml:"name"`
	IsAdmin   bool            `json:"is_admin" yaml:"is_admin"`
	Balance   decimal.Decimal `json:"balance" yaml:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
