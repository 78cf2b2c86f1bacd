package model

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryMeat  Category = "Meat"
	CategorySide  Category = "Side"
	CategoryDrink Category = "Drink"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryMeat, CategorySide, CategoryDrink}

// ParseCategory accepts singular and plural spellings in any case.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "meat", "meats":
		return CategoryMeat, nil
	case "side", "sides":
		return CategorySide, nil
	case "drink", "drinks":
		return CategoryDrink, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func (c Category) Valid() bool {
	return c.Index() >= 0
}

// Index is the stable numeric encoding used as a model feature.
func (c Category) Index() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return -1
}
