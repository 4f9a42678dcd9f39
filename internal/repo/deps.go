package repo

import (
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/stores/cache"

	cachekeys "perpdash-api/internal/cache"
	"perpdash-api/internal/model"
	"perpdash-api/pkg/market"
)

// Dependencies bundles the models, cache and upstream providers required by
// repository implementations. FundingRatesModel is nil when no database is
// configured, in which case reads go to the providers.
type Dependencies struct {
	Cache cache.Cache
	TTL   cachekeys.TTLSet

	FundingRatesModel model.FundingRatesModel
	Providers         map[string]market.Provider

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Set exposes strongly typed repositories to application logic.
type Set struct {
	Funding FundingRepo
}

// New constructs the repository set, validating required dependencies.
func New(deps Dependencies) (*Set, error) {
	if deps.FundingRatesModel == nil && len(deps.Providers) == 0 {
		return nil, errors.New("repo: need a FundingRatesModel or at least one provider")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Set{
		Funding: newFundingRepo(deps),
	}, nil
}
