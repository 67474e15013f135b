// Package cli turns a table of command definitions into a cobra command
// tree. Every subcommand resolves its options from definition defaults, the
// config file, APPCOMMANDS_* variables and flags, then runs through the
// command orchestrator wrapped in the exception handler chain.
package cli
