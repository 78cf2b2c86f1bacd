package model

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCashier   Role = "cashier"
	RoleKitchen   Role = "kitchen"
	RolePuncher   Role = "puncher"
	RoleAnonymous Role = "anonymous"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleKitchen, RolePuncher:
		return true
	}
	return false
}

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
