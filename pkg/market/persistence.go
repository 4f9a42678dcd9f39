package market

import (
	"context"

	"perpdash-api/pkg/funding"
)

// Persistence hooks allow providers to persist funding data to external stores.
type Persistence interface {
	// RecordRates persists a batch of latest rates fetched from provider.
	RecordRates(ctx context.Context, provider string, rates []funding.RateRecord) error
}

// PersistenceSetter is implemented by providers that accept a persistence hook.
type PersistenceSetter interface {
	SetPersistence(Persistence)
}

// AttachPersistence wires persist into p when p supports hooks and reports
// whether it did.
func AttachPersistence(p Provider, persist Persistence) bool {
	setter, ok := p.(PersistenceSetter)
	if !ok {
		return false
	}
	setter.SetPersistence(persist)
	return true
}
