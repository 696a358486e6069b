// Package vcs fetches repository sources into cache directories.
//
// GitFetcher talks git natively through go-git; ExecFetcher drives the git
// command line. Both run commands against an explicit directory and never
// change the process working directory.
package vcs
