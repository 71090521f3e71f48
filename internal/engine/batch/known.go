package batch

import (
	"maps"
	"sync"

	"github.com/law-makers/lotwatch/pkg/models"
)

// KnownRecords maps lot id to lot for everything already stored or found this run.
// A lot being enriched is reserved so two workers never process the same id.
type KnownRecords struct {
	mu       sync.RWMutex
	lots     map[string]models.Lot
	inFlight map[string]struct{}
}

// NewKnownRecords starts from a copy of preload.
func NewKnownRecords(preload map[string]models.Lot) *KnownRecords {
	lots := make(map[string]models.Lot, len(preload))
	maps.Copy(lots, preload)
	return &KnownRecords{lots: lots, inFlight: make(map[string]struct{})}
}

// Reserve claims id for enrichment. It fails if id is known or already claimed.
func (k *KnownRecords) Reserve(id string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.lots[id]; ok {
		return false
	}
	if _, ok := k.inFlight[id]; ok {
		return false
	}
	k.inFlight[id] = struct{}{}
	return true
}

// Release gives up a reservation without recording the lot.
func (k *KnownRecords) Release(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.inFlight, id)
}

// Put records an enriched lot and clears its reservation.
func (k *KnownRecords) Put(lot models.Lot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.inFlight, lot.LotID)
	k.lots[lot.LotID] = lot
}

// Len returns the number of known lots.
func (k *KnownRecords) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.lots)
}
