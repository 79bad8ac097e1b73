// Package confstate holds the configuration state of a single configure run.
//
// # Maps
//
//   - System: facts about the host (OS, ARCH, tool versions)
//   - Project: tool paths and additive flag variables (CXX, CXXFLAGS, ...)
//   - Defines: preprocessor-like constants produced by configuration tests,
//     nested under Project when handed to the build generator
//   - Profiles: one map per named build profile (debug, release, ...)
//
// # Concurrency Model
//
// A State is created once per run and passed by reference to every component
// that reads or merges into it. All methods take a single mutex, so merges
// are fully serialized: one completes before the next begins. Readers that
// need a consistent view across several keys use Snapshot.
package confstate
