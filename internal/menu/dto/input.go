package dto

import "github.com/shopspring/decimal"

type SideOptionInput struct {
	Name           string          `json:"name" yaml:"name"`
	Surcharge      decimal.Decimal `json:"surcharge" yaml:"surcharge"`
	ConsumesItemID *int64          `json:"consumes_item_id,omitempty" yaml:"-"`
}

type CreateMenuItemInput struct {
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Price        decimal.Decimal   `json:"price"`
	Stock        int               `json:"stock"`
	RequiresSide bool              `json:"requires_side"`
	SideOptions  []SideOptionInput `json:"side_options"`
	Actor        string            `json:"-"`
}

// UpdateMenuItemInput is a patch: nil fields keep their current value.
type UpdateMenuItemInput struct {
	ID           int64              `json:"-"`
	Name         *string            `json:"name"`
	Category     *string            `json:"category"`
	Price        *decimal.Decimal   `json:"price"`
	RequiresSide *bool              `json:"requires_side"`
	SideOptions  *[]SideOptionInput `json:"side_options"`
	Actor        string             `json:"-"`
}
