// Package ir provides the value and type model shared by every weavelog package.
//
// This package contains the closed Value and Type sum types, the ordered
// containers they are built from, and their JSON forms. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value and Type are sealed: only the types declared here implement them
//   - Dict and Fields keep first-seen key order; equality ignores it
//   - Float values always marshal with a fraction or exponent so int and float
//     stay distinct across a round-trip
//   - No process-wide registry: custom type names live in a Registry value
//     built once per session
package ir
