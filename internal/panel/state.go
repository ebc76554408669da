package panel

import (
	"sync"

	"github.com/google/uuid"

	"github.com/krittapak/catalog-panel/internal/model"
)

// State is the panel's view model: the locally held product list and
// statistics snapshots. It is mutated only through the workflow operations;
// read endpoints serve whatever snapshot is current. The lock guards memory
// safety only — there is deliberately no mutual exclusion between two
// concurrent workflow invocations for the same product code, and no
// generation counter stops an older refresh from overwriting a newer one.
type State struct {
	mu       sync.RWMutex
	products []model.Product
	stats    model.Statistics
}

func NewState() *State {
	return &State{}
}

// Products returns a copy of the product snapshot.
func (s *State) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *State) Statistics() model.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats
}

// Product looks up a product by code in the snapshot.
func (s *State) Product(code string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Code == code {
			return p, true
		}
	}
	return model.Product{}, false
}

func (s *State) SetProducts(products []model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = products
}

func (s *State) SetStatistics(stats model.Statistics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = stats
}

// RemoveImage prunes an image identifier from a product's ordered image
// list. Removing an identifier that is no longer present is a no-op: the
// list is never corrupted by a repeated removal.
func (s *State) RemoveImage(code string, imageID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.products {
		if p.Code != code {
			continue
		}
		for j, id := range p.ImageIDs {
			if id == imageID {
				s.products[i].ImageIDs = append(p.ImageIDs[:j:j], p.ImageIDs[j+1:]...)
				return true
			}
		}
		return false
	}
	return false
}
