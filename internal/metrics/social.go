// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Login result labels.
const (
	ResultSuccess                = "success"
	ResultProviderError          = "provider_error"
	ResultMissingCode            = "missing_code"
	ResultStateMismatch          = "state_mismatch"
	ResultTokenExchangeFailed    = "token_exchange_failed"
	ResultProfileFetchFailed     = "profile_fetch_failed"
	ResultMissingEmail           = "missing_email"
	ResultReconciliationConflict = "reconciliation_conflict"
	ResultServerError            = "server_error"
)

var (
	loginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgw_social_login_total",
			Help: "Completed social login callbacks by provider and result.",
		},
		[]string{"provider", "result"},
	)

	authorizeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgw_authorize_redirects_total",
			Help: "Issued authorize redirects by provider.",
		},
		[]string{"provider"},
	)
)

// Register registers the collectors with the given registerer.
// Re-registration (tests, multiple bootstraps) is tolerated.
func Register(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{loginTotal, authorizeTotal} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

// ObserveLogin records one finished callback.
func ObserveLogin(provider, result string) {
	loginTotal.WithLabelValues(provider, result).Inc()
}

// ObserveAuthorize records one issued authorize redirect.
func ObserveAuthorize(provider string) {
	authorizeTotal.WithLabelValues(provider).Inc()
}
