// Package types defines the daybook entity types, the store interfaces every
// backend implements, configuration, and the standard errors shared across
// packages.
package types
