// Package hash provides the checksums and fingerprints used on the wire and
// for cross-engine result comparison.
package hash
