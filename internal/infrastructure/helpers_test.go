package infrastructure

import (
	"io"

	"adintel/pkg/logger"
	"adintel/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func testDeps() (*logger.Logger, *metrics.Metrics) {
	return logger.NewWithWriter("error", io.Discard), metrics.NewWithRegistry(prometheus.NewRegistry())
}

func newTestClient(opts HTTPClientOptions) *HTTPClient {
	log, m := testDeps()
	return NewHTTPClient(opts, log, m)
}
