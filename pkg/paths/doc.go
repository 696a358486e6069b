// Package paths provides centralized path handling for mum.
//
// Every path the installer touches goes through Resolve so that relative
// sources and targets are expanded at the earliest possible moment, and every
// installation target goes through IsRoot before anything is written.
package paths
