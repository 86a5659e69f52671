package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionsIssued counts QR sessions minted by teachers.
var SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
	Name: "acadence_sessions_issued_total",
	Help: "Number of attendance sessions issued.",
})

// Redemptions counts redemption attempts by outcome: marked, already_marked,
// not_found, expired, invalid, error.
var Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "acadence_redemptions_total",
	Help: "Number of attendance redemption attempts by outcome.",
}, []string{"outcome"})
