//go:build !cbuilddebug

package cbuild

// debugAsserts controls whether contract violations halt execution.
// Release builds report them as errors instead.
const debugAsserts = false
