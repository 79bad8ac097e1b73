// Package procrun spawns external commands synchronously and captures their
// exit status, standard output and standard error.
//
// A non-zero exit is never reported as an error: it is returned as data in a
// Result for the caller to interpret. The only error condition is a child
// that could not be started at all, reported as a *SpawnError. Every
// invocation is bounded by a timeout; a child still running when it expires
// is killed and its Result is marked TimedOut.
package procrun
