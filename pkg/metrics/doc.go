/*
Package metrics registers pipeliner's Prometheus metrics: planning cost,
proxy/fan-out counts, job starts, node liveness, and per-edge throughput.
Metrics are exposed over HTTP via Handler for scraping.

It also carries a small component health registry (health.go) used by the
--metrics-addr HTTP server's /health, /ready, and /live endpoints, and an
EdgeSampler (collector.go) that periodically refreshes the NodesRunning
gauge from the supervisor's live process table.
*/
package metrics
