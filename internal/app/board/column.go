package board

import "github.com/nvimer/plaet-kitchen/internal/domain"

type stageMeta struct {
	Title string
	Icon  string
}

var stageMetas = map[domain.Stage]stageMeta{
	domain.StagePending:    {Title: "Pending", Icon: "clock"},
	domain.StageInProgress: {Title: "In progress", Icon: "flame"},
	domain.StageDone:       {Title: "Done", Icon: "check-circle"},
}

// Column is one stage of the desktop board and a drop target keyed by
// its stage.
type Column struct {
	Stage domain.Stage `json:"stage"`
	Title string       `json:"title"`
	Icon  string       `json:"icon"`
	Cards []Card       `json:"cards"`
	// Over is set while a dragged card resolves to this column.
	Over  bool         `json:"over"`
	Empty bool         `json:"empty"`
}

func NewColumn(stage domain.Stage, cards []Card, over bool) Column {
	meta := stageMetas[stage]
	if cards == nil {
		cards = []Card{}
	}
	return Column{
		Stage: stage,
		Title: meta.Title,
		Icon:  meta.Icon,
		Cards: cards,
		Over:  over,
		Empty: len(cards) == 0,
	}
}

// Droppable returns the column as a drop target with the given rect.
func (c Column) Droppable(rect Rect) Droppable {
	return Droppable{ID: string(c.Stage), Kind: TargetColumn, Stage: c.Stage, Rect: rect}
}
