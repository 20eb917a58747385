// Package app holds the lease workflow core: the stage machine, input
// validation and normalization, the error taxonomy, the per-action busy
// guard and the cached lease projections. Everything here is pure with
// respect to the chain; on-chain access goes through the ports in
// service_ports.go.
package app
