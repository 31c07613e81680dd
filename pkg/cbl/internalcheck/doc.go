// Package internalcheck holds static checks over the module's own source.
//
// The checks load the module with golang.org/x/tools/go/packages and walk
// the typed syntax trees. They guard structural rules that the compiler
// cannot express, such as which packages may touch native reference counts.
// The package has no non-test API.
package internalcheck
