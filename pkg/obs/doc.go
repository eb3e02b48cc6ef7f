// Package obs holds the hub's Prometheus metrics.
package obs
