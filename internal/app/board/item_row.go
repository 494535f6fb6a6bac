package board

import "github.com/nvimer/plaet-kitchen/internal/domain"

// ItemRow is the rendered form of one order line.
type ItemRow struct {
	LineID   string      `json:"line_id"`
	Quantity int         `json:"quantity"`
	Name     string      `json:"name"`
	Note     *string     `json:"note,omitempty"`
	Role     domain.Role `json:"role"`
	Ready    bool        `json:"ready"`
	// Auto rows are not preparable: they count as satisfied and cannot be toggled.
	Auto     bool        `json:"auto"`
}

func NewItemRow(line domain.OrderLine, role domain.Role, ready bool) ItemRow {
	preparable := domain.IsPreparable(role)
	return ItemRow{
		LineID:   line.ID,
		Quantity: line.Quantity,
		Name:     line.MenuItem.Name,
		Note:     line.Note,
		Role:     role,
		Ready:    preparable && ready,
		Auto:     !preparable,
	}
}

// Toggle asks onToggle to flip the row. Auto rows never call it.
func (r ItemRow) Toggle(onToggle func(lineID string, ready bool)) {
	if r.Auto || onToggle == nil {
		return
	}
	onToggle(r.LineID, !r.Ready)
}
