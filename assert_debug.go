//go:build cbuilddebug

package cbuild

// debugAsserts controls whether contract violations halt execution.
// Debug builds panic immediately so violations are caught during
// development.
const debugAsserts = true
