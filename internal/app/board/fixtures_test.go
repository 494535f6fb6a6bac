package board

import (
	"time"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

const (
	catMeat  = "cat-meat"
	catSides = "cat-sides"
	catDrink = "cat-drink"
)

var testCategories = domain.NewCategoryConfig([]string{catMeat}, []string{catSides})

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func cat(id string) *string { return &id }

func line(id, category string) domain.OrderLine {
	l := domain.OrderLine{ID: id, Quantity: 1, MenuItem: domain.MenuItem{ID: "m-" + id, Name: "dish " + id}}
	if category != "" {
		l.MenuItem.CategoryID = cat(category)
	}
	return l
}

func order(id string, stage domain.Stage, created time.Time, lines ...domain.OrderLine) domain.Order {
	return domain.Order{ID: id, Stage: stage, CreatedAt: created, UpdatedAt: created, Lines: lines}
}
