package model

import "github.com/shopspring/decimal"

type MenuItem struct {
	BaseModel
	Name         string          `db:"name" json:"name"`
	Category     Category        `db:"category" json:"category"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Stock        int             `db:"stock" json:"stock"`
	RequiresSide bool            `db:"requires_side" json:"requires_side"`
	SideOptions  []SideOption    `db:"-" json:"side_options"`
}

// SideOption is a priced accompaniment selectable on a Meat item. When ConsumesItemID
// is set, each ordered unit also takes one unit of that item's stock.
type SideOption struct {
	MenuItemID     int64           `db:"menu_item_id" json:"-"`
	Name           string          `db:"name" json:"name"`
	Surcharge      decimal.Decimal `db:"surcharge" json:"surcharge"`
	ConsumesItemID *int64          `db:"consumes_item_id" json:"consumes_item_id,omitempty"`
}

func (m *MenuItem) SideOption(name string) (SideOption, bool) {
	for _, opt := range m.SideOptions {
		if opt.Name == name {
			return opt, true
		}
	}
	return SideOption{}, false
}
