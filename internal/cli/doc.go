// Package cli defines the animagif cobra commands.
//
// Every command receives the shared Dependencies, which the root command
// fills in from the configuration before any command runs.
package cli
