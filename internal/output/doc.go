// Package output formats command-line results and export progress.
package output
