package distribution

import (
	"sync"

	"topglobal/statements/internal/models"
)

// ConceptRegistry resolves allocation labels to concept kinds, creating an
// entry for ad-hoc labels seen on extraordinary items so repeated labels map
// consistently.
type ConceptRegistry struct {
	mu      sync.Mutex
	byLabel map[string]models.ConceptKind
}

// NewConceptRegistry creates a registry seeded with the schedule labels.
func NewConceptRegistry() *ConceptRegistry {
	return &ConceptRegistry{
		byLabel: map[string]models.ConceptKind{
			models.ConceptCapital.Label():  models.ConceptCapital,
			models.ConceptInterest.Label(): models.ConceptInterest,
			models.ConceptLateFee.Label():  models.ConceptLateFee,
			models.ConceptPenalty.Label():  models.ConceptPenalty,
		},
	}
}

// Resolve returns the kind registered for a label, registering unknown
// labels as ConceptOther.
func (r *ConceptRegistry) Resolve(label string) models.ConceptKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind, ok := r.byLabel[label]; ok {
		return kind
	}
	r.byLabel[label] = models.ConceptOther
	return models.ConceptOther
}
