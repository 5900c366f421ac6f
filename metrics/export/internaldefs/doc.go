// Package internaldefs holds the stable metric names and bucket boundaries
// shared by the exporter implementations, so the Prometheus and OTel views
// of the same engine can never drift apart.
package internaldefs
