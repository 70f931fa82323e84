// Package file provides TOML-backed configuration for the TenderLens
// CLI. Settings live in ~/.tenderlens/config.toml by default and cover
// provider credentials, storage and every pipeline knob.
package file
