// Package resources sizes the worker pool and batches from host capacity.
//
// HostProbe reads physical cores and installed memory with gopsutil; Static
// pins them for tests or operator overrides.
package resources
