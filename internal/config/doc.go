// Package config defines the format-agnostic settings of a configure run,
// along with the interfaces (Loader, Writer) for reading settings from and
// writing the final configuration state to a concrete file format.
//
// The HCL implementations live in the `hcl` package.
package config
