// Package core defines types shared by every stage of the formula pipeline.
//
// The Golden Rule: pkg/core imports only the standard library.
// All other packages depend on core, not the reverse.
package core
