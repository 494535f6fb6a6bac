package domain

// Role is the kitchen role of a line, derived from its menu category.
type Role string

const (
	RoleProtein Role = "protein"
	RoleExtra   Role = "extra"
	RoleOther   Role = "other"
)

// CategoryConfig holds the category ids that make a line preparable.
// The zero value classifies everything as RoleOther.
type CategoryConfig struct {
	ProteinIDs map[string]struct{}
	ExtraIDs   map[string]struct{}
}

func NewCategoryConfig(proteinIDs, extraIDs []string) CategoryConfig {
	cfg := CategoryConfig{
		ProteinIDs: make(map[string]struct{}, len(proteinIDs)),
		ExtraIDs:   make(map[string]struct{}, len(extraIDs)),
	}
	for _, id := range proteinIDs {
		cfg.ProteinIDs[id] = struct{}{}
	}
	for _, id := range extraIDs {
		cfg.ExtraIDs[id] = struct{}{}
	}
	return cfg
}

// Classify maps a category id to a role. Missing or unknown ids are
// RoleOther; protein wins when an id is in both sets.
func Classify(categoryID *string, cfg CategoryConfig) Role {
	if categoryID == nil {
		return RoleOther
	}
	if _, ok := cfg.ProteinIDs[*categoryID]; ok {
		return RoleProtein
	}
	if _, ok := cfg.ExtraIDs[*categoryID]; ok {
		return RoleExtra
	}
	return RoleOther
}

func IsPreparable(r Role) bool {
	return r == RoleProtein || r == RoleExtra
}

// Role classifies the line through its menu item's category.
func (l OrderLine) Role(cfg CategoryConfig) Role {
	return Classify(l.MenuItem.CategoryID, cfg)
}
