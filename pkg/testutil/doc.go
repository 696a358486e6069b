// Package testutil builds project trees and collaborator fakes for tests.
//
// Trees are written to an afero filesystem, normally a MemMapFs. Tests that
// run real processes (git, scripts) use t.TempDir() with afero.NewOsFs().
package testutil
