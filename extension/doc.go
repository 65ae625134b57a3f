// Package extension provides run-time registries that allow Fluxor to work
// with user-defined Go types (for example custom action inputs or outputs).
//
// The registries are normally modified through the public APIs under the
// root fluxor package, therefore most applications do not need to import
// this package directly.
package extension
