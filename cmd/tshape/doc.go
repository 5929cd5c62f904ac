// Package main hosts the tshape CLI.
//
// The cobra command tree resolves configuration once per invocation, runs
// the batch analysis over a directory of shape tables, writes the output
// table, and optionally archives runs to SQLite for later listing.
package main
