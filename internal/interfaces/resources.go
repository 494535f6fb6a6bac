package interfaces

import (
	"time"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

// HTTP resources shared by the order service handlers and the board's
// order service client.

type OrderResource struct {
	ID        string              `json:"id"`
	Table     *TableResource      `json:"table,omitempty"`
	Stage     domain.Stage        `json:"stage"`
	Lines     []OrderLineResource `json:"lines"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type TableResource struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
}

type OrderLineResource struct {
	ID       string           `json:"id"`
	Quantity int              `json:"quantity"`
	Note     *string          `json:"note,omitempty"`
	MenuItem MenuItemResource `json:"menu_item"`
}

type MenuItemResource struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	CategoryID *string `json:"category_id,omitempty"`
}

type OrderListResource struct {
	Orders []OrderResource `json:"orders"`
}

type UpdateStageRequest struct {
	Stage domain.Stage `json:"stage"`
}

type StageLogResource struct {
	Stage     domain.Stage `json:"stage"`
	ChangedBy string       `json:"changed_by"`
	Timestamp time.Time    `json:"timestamp"`
}

type TerminalResource struct {
	Name              string                `json:"terminal_name"`
	Status            domain.TerminalStatus `json:"status"`
	TransitionsIssued int                   `json:"transitions_issued"`
	LastSeen          time.Time             `json:"last_seen"`
}

func NewOrderResource(o domain.Order) OrderResource {
	res := OrderResource{
		ID:        o.ID,
		Stage:     o.Stage,
		Lines:     make([]OrderLineResource, 0, len(o.Lines)),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if o.Table != nil {
		res.Table = &TableResource{ID: o.Table.ID, Number: o.Table.Number}
	}
	for _, l := range o.Lines {
		res.Lines = append(res.Lines, OrderLineResource{
			ID:       l.ID,
			Quantity: l.Quantity,
			Note:     l.Note,
			MenuItem: MenuItemResource{
				ID:         l.MenuItem.ID,
				Name:       l.MenuItem.Name,
				CategoryID: l.MenuItem.CategoryID,
			},
		})
	}
	return res
}

// ToDomain converts the resource back into an order. The stage is checked;
// everything else is taken as served.
func (r OrderResource) ToDomain() (domain.Order, error) {
	if !r.Stage.Valid() {
		return domain.Order{}, domain.ErrInvalidStage
	}

	o := domain.Order{
		ID:        r.ID,
		Stage:     r.Stage,
		Lines:     make([]domain.OrderLine, 0, len(r.Lines)),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Table != nil {
		o.Table = &domain.TableRef{ID: r.Table.ID, Number: r.Table.Number}
	}
	for _, l := range r.Lines {
		o.Lines = append(o.Lines, domain.OrderLine{
			ID:       l.ID,
			Quantity: l.Quantity,
			Note:     l.Note,
			MenuItem: domain.MenuItem{
				ID:         l.MenuItem.ID,
				Name:       l.MenuItem.Name,
				CategoryID: l.MenuItem.CategoryID,
			},
		})
	}
	return o, nil
}
