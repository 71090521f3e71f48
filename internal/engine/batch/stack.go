package batch

import (
	"sync"

	"github.com/law-makers/lotwatch/pkg/models"
)

// WorkStack is the LIFO of candidates shared by all workers.
type WorkStack struct {
	mu    sync.Mutex
	items []models.Lot
}

// NewWorkStack pushes lots in order, so the last lot is popped first.
func NewWorkStack(lots []models.Lot) *WorkStack {
	return &WorkStack{items: append([]models.Lot(nil), lots...)}
}

// Pop removes and returns the top lot. ok is false when the stack is empty.
func (s *WorkStack) Pop() (lot models.Lot, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.items)
	if n == 0 {
		return models.Lot{}, false
	}
	lot = s.items[n-1]
	s.items[n-1] = models.Lot{}
	s.items = s.items[:n-1]
	return lot, true
}

// Len returns the number of pending lots.
func (s *WorkStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
