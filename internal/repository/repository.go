package repository

import (
	"context"
	"database/sql"
	"time"

	"homestate/internal/models"
	"homestate/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.HomeEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.HomeEvent, error)
}

type Repository struct {
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(sqlDB),
		Auth:      NewUserRepository(sqlDB),
	}
}

// InitDB opens the SQLite file and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
