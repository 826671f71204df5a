package service

import "github.com/recipick/backend/internal/model"

// WorkingSet is the ordered, request-scoped accumulator of recommendation
// candidates. A recipe is rejected when its id or its exact name is already
// present, or when the quota is reached.
type WorkingSet struct {
	quota int
	items []model.Recipe
	ids   map[uint]bool
	names map[string]bool
}

func NewWorkingSet(quota int) *WorkingSet {
	return &WorkingSet{
		quota: quota,
		ids:   make(map[uint]bool),
		names: make(map[string]bool),
	}
}

// Add appends r and reports whether it was accepted.
func (ws *WorkingSet) Add(r model.Recipe) bool {
	if ws.Full() || ws.ids[r.ID] || ws.names[r.Name] {
		return false
	}
	ws.items = append(ws.items, r)
	ws.ids[r.ID] = true
	ws.names[r.Name] = true
	return true
}

// AddAll adds records in order until the quota is reached.
func (ws *WorkingSet) AddAll(records []model.Recipe) int {
	added := 0
	for _, r := range records {
		if ws.Full() {
			break
		}
		if ws.Add(r) {
			added++
		}
	}
	return added
}

func (ws *WorkingSet) Full() bool { return len(ws.items) >= ws.quota }

func (ws *WorkingSet) Len() int { return len(ws.items) }

// Missing is the number of free slots.
func (ws *WorkingSet) Missing() int {
	if n := ws.quota - len(ws.items); n > 0 {
		return n
	}
	return 0
}

func (ws *WorkingSet) HasName(name string) bool { return ws.names[name] }

// Names returns the accepted names in insertion order.
func (ws *WorkingSet) Names() []string {
	out := make([]string, len(ws.items))
	for i, r := range ws.items {
		out[i] = r.Name
	}
	return out
}

// Items returns a copy of the accepted recipes in insertion order.
func (ws *WorkingSet) Items() []model.Recipe {
	return append([]model.Recipe(nil), ws.items...)
}
