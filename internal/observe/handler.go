package observe

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the Prometheus exposition format for whatever
// metrics the OTel Prometheus exporter registered against the default
// registry during InitProvider.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
