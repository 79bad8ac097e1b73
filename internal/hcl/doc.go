// Package hcl provides the HCL implementations of the config.Loader and
// config.Writer interfaces: it parses the optional settings file and renders
// the final configuration state as an HCL document for the build generator.
package hcl
