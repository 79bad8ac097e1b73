// Package probe implements the configuration test policies layered over
// procrun: compiling a source file, compiling and then running it, running
// an arbitrary command, and scraping a tool's version string.
//
// Each test value is constructed for one file, executed once and discarded.
package probe
