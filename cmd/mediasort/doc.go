// Package main hosts the mediasort CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into organize and
// sweep runs, dry-run inspection of single files, tag inventories, ledger
// history queries, and configuration scaffolding. It centralizes
// configuration resolution, flag overrides and run logging so subcommands
// can focus on presentation.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
