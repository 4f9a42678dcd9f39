package hyperliquid

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/pkg/funding"
)

// persistRates writes the given rates to the persistence hook (if configured)
// and logs errors without blocking the data path.
func (p *Provider) persistRates(ctx context.Context, rates []funding.RateRecord) {
	if p.persistence == nil || len(rates) == 0 {
		return
	}
	if err := p.persistence.RecordRates(ctx, p.providerName(), rates); err != nil {
		logx.WithContext(ctx).Errorf("hyperliquid: persist rates provider=%s count=%d err=%v", p.providerName(), len(rates), err)
	}
}
