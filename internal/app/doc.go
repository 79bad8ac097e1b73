// Package app contains the core application logic. It wires settings, tool
// discovery, the configuration engine and the hand-off writer into a single
// configure run, decoupled from any specific entrypoint like a CLI.
package app
