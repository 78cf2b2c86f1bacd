package dto

import (
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

type MovementFilters struct {
	MenuItemID *int64
	Cause      model.MovementCause
	OrderID    *int64
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}

// ItemStock is the slice of a menu item the stock store needs.
type ItemStock struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Stock int    `db:"stock"`
}
