// internal/application/usecase/effects.go
package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/domain/common"
	productdom "storefront/internal/domain/product"
	"storefront/internal/infra/metrics"
)

// Effect names used in EffectOutcome and metrics labels.
const (
	EffectOrderConfirmation = "order_confirmation"
	EffectSearchIndex       = "search_index"
)

// EffectOutcome is the result of one best-effort step that ran after a
// committed write. Err is nil on success and a *common.SideEffectError otherwise.
type EffectOutcome struct {
	Effect  string `json:"effect"`
	Target  string `json:"target,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Err     error  `json:"-"`
}

// OK reports whether the effect ran and succeeded.
func (o EffectOutcome) OK() bool { return o.Err == nil && !o.Skipped }

// Failed returns the outcomes whose effect failed.
func Failed(outcomes []EffectOutcome) []EffectOutcome {
	var out []EffectOutcome
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// runEffect executes fn and converts a failure or panic into an outcome.
// Nothing escapes: the committed write is already final.
func runEffect(ctx context.Context, logger *zap.Logger, m *metrics.Metrics, effect, target string, fn func(context.Context) error) (out EffectOutcome) {
	out = EffectOutcome{Effect: effect, Target: target}
	defer func() {
		if r := recover(); r != nil {
			out.Err = &common.SideEffectError{Effect: effect, Err: panicError{r}}
			logger.Error("side effect panicked", zap.String("effect", effect), zap.String("target", target), zap.Any("panic", r))
			m.SideEffectFailed(effect)
		}
	}()

	if err := fn(ctx); err != nil {
		out.Err = &common.SideEffectError{Effect: effect, Err: err}
		logger.Warn("side effect failed", zap.String("effect", effect), zap.String("target", target), zap.Error(err))
		m.SideEffectFailed(effect)
	}
	return out
}

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.v) }

// syncIndex pushes p to the search index as a best-effort effect.
func syncIndex(ctx context.Context, logger *zap.Logger, m *metrics.Metrics, indexer productdom.Indexer, p productdom.Product) EffectOutcome {
	if indexer == nil {
		return EffectOutcome{Effect: EffectSearchIndex, Target: p.ID, Skipped: true}
	}
	return runEffect(ctx, logger, m, EffectSearchIndex, p.ID, func(ctx context.Context) error {
		return indexer.IndexProduct(ctx, p.ToIndexDocument())
	})
}
