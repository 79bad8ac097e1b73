// Package discovery locates the build tools a configure run needs and seeds
// the configuration state with them.
//
// For every tool an explicit override (an environment variable named after
// the tool's key) wins. Otherwise a fixed priority list of command names is
// probed with "--version" and the first one exiting zero is taken. A tool
// nobody could find is a diagnostic, not an error: its key stays unset and
// the run continues.
package discovery
