package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "schoolapi", Name: "http_requests_total", Help: "Processed HTTP requests",
	}, []string{"route", "status"})
	LoginFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolapi", Name: "login_failures_total", Help: "Failed login attempts",
	})
	ProvisionErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolapi", Name: "provision_errors_total", Help: "Provisioning errors",
	})
	UsersByRole = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "schoolapi", Name: "users_by_role", Help: "Current user count per role",
	}, []string{"role"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "schoolapi", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, LoginFailures, ProvisionErrors, UsersByRole, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
