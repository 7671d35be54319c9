// Package version provides centralized version information for batchd monorepo
// projects. This package supports independent versioning for the batchd daemon
// and the batchctl CLI as separate projects within the monorepo, allowing them
// to evolve independently while maintaining consistency within each project's
// components.
// All versions follow semantic versioning (semver) conventions.

package version

// BatchdVersion holds the current batchd daemon version.
// Format: major.minor.patch[-prerelease][+build]
const BatchdVersion = "0.1.0-dev"

// BatchctlVersion holds the current batchctl CLI version.
// This is used by the CLI binary and allows independent evolution
// of the management tool separate from the daemon infrastructure.
// Format: major.minor.patch[-prerelease][+build]
const BatchctlVersion = "0.1.0-dev"
