package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// StorefrontMetrics are the shopper-facing business counters.
// A nil *StorefrontMetrics records nothing.
type StorefrontMetrics struct {
	logins        *Counter
	signOuts      *Counter
	checkouts     *Counter
	cartMutations *Counter
	cartSyncs     *Counter
	httpDuration  *Histogram
}

// NewStorefrontMetrics registers the storefront instruments on meter
func NewStorefrontMetrics(meter metric.Meter) (*StorefrontMetrics, error) {
	var (
		m   StorefrontMetrics
		err error
	)
	if m.logins, err = NewCounter(meter, "storefront.auth.logins", "Sign-in attempts by mode and outcome", "{attempt}"); err != nil {
		return nil, err
	}
	if m.signOuts, err = NewCounter(meter, "storefront.auth.signouts", "Completed sign-outs", "{signout}"); err != nil {
		return nil, err
	}
	if m.checkouts, err = NewCounter(meter, "storefront.checkouts", "Checkout attempts by outcome", "{checkout}"); err != nil {
		return nil, err
	}
	if m.cartMutations, err = NewCounter(meter, "storefront.cart.mutations", "Cart changes by operation", "{mutation}"); err != nil {
		return nil, err
	}
	if m.cartSyncs, err = NewCounter(meter, "storefront.cart.syncs", "Cart reconciliations by outcome", "{sync}"); err != nil {
		return nil, err
	}
	if m.httpDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "storefront.http.server.duration",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordLogin counts a sign-in attempt
func (m *StorefrontMetrics) RecordLogin(ctx context.Context, mode, outcome string) {
	if m == nil {
		return
	}
	m.logins.Inc(ctx, AttrAuthMode.String(mode), AttrOutcome.String(outcome))
}

// RecordSignOut counts a sign-out
func (m *StorefrontMetrics) RecordSignOut(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.signOuts.Inc(ctx, AttrAuthMode.String(mode))
}

// RecordCheckout counts a checkout attempt
func (m *StorefrontMetrics) RecordCheckout(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.checkouts.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordCartMutation counts a cart change
func (m *StorefrontMetrics) RecordCartMutation(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.cartMutations.Inc(ctx, AttrOperation.String(operation))
}

// RecordCartSync counts a cart reconciliation
func (m *StorefrontMetrics) RecordCartSync(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.cartSyncs.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordHTTPRequest records request latency
func (m *StorefrontMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.RecordDuration(ctx, d,
		AttrHTTPMethod.String(method),
		AttrHTTPRoute.String(route),
		AttrHTTPStatus.Int(status),
	)
}
