package board

// ReadySet holds the ids of lines the kitchen has marked ready on this board.
// It lives only as long as the board mount.
type ReadySet struct {
	ids map[string]struct{}
}

func NewReadySet() *ReadySet {
	return &ReadySet{ids: make(map[string]struct{})}
}

func (s *ReadySet) IsReady(lineID string) bool {
	_, ok := s.ids[lineID]
	return ok
}

func (s *ReadySet) Set(lineID string, ready bool) {
	if ready {
		s.ids[lineID] = struct{}{}
		return
	}
	delete(s.ids, lineID)
}

// Prune drops every id not in known and returns how many were dropped.
func (s *ReadySet) Prune(known map[string]struct{}) int {
	dropped := 0
	for id := range s.ids {
		if _, ok := known[id]; !ok {
			delete(s.ids, id)
			dropped++
		}
	}
	return dropped
}

func (s *ReadySet) Len() int {
	return len(s.ids)
}
