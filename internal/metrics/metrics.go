// Package metrics exposes Prometheus counters for the wallet handshake and guards.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the HTTP layer reports to
type Recorder interface {
	RecordChallenge()
	RecordLogin(result string)
	RecordCredentialIssued()
	RecordGuardDecision(mode, outcome string)
	RecordRateLimited()
}

// Login results
const (
	LoginSuccess       = "success"
	LoginBadRequest    = "bad_request"
	LoginBadSignature  = "bad_signature"
	LoginIssuanceError = "issuance_error"
)

// Guard modes and outcomes
const (
	GuardStrict     = "strict"
	GuardPermissive = "permissive"

	GuardAuthenticated = "authenticated"
	GuardAnonymous     = "anonymous"
	GuardRejected      = "rejected"
)

// Collector records walletgate metrics into a Prometheus registry
type Collector struct {
	challenges  prometheus.Counter
	logins      *prometheus.CounterVec
	issued      prometheus.Counter
	guard       *prometheus.CounterVec
	rateLimited prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		challenges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walletgate_challenges_total",
			Help: "Number of nonces handed out",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletgate_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walletgate_credentials_issued_total",
			Help: "Number of credentials issued",
		}),
		guard: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletgate_guard_decisions_total",
			Help: "Guard decisions by mode and outcome",
		}, []string{"mode", "outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walletgate_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}

	reg.MustRegister(
		c.challenges,
		c.logins,
		c.issued,
		c.guard,
		c.rateLimited,
	)

	return c
}

func (c *Collector) RecordChallenge() {
	c.challenges.Inc()
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordCredentialIssued() {
	c.issued.Inc()
}

func (c *Collector) RecordGuardDecision(mode, outcome string) {
	c.guard.WithLabelValues(mode, outcome).Inc()
}

func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordChallenge()                   {}
func (Nop) RecordLogin(string)                 {}
func (Nop) RecordCredentialIssued()            {}
func (Nop) RecordGuardDecision(string, string) {}
func (Nop) RecordRateLimited()                 {}
