// Package engine runs a directory of configuration tests and merges their
// output into the run's configuration state.
//
// # Output contract
//
// Feature and configuration tests print one definition per line:
//
//	line := KEY '=' VALUE
//
// KEY and VALUE are trimmed of surrounding whitespace and there is no
// escaping. Blank lines are skipped. A line with no '=' or with more than
// one is malformed: the definitions before it are kept, the rest of the
// output is discarded and the test is reported as failed.
//
// # Merge semantics
//
// Feature test values are appended, space separated, to the project map, so
// probes can extend additive flag variables such as CXXFLAGS. Configuration
// test values go into the defines map; redefining a key logs a warning and
// the newer value wins. Pass/fail tests contribute nothing but a verdict.
//
// # Execution
//
// Tests may run concurrently, but merges are applied one at a time in
// directory order once every test has finished, so a parallel pass leaves the
// same state as a sequential one. Compiled tests all see the compile flags
// as they were when the pass started.
package engine
