// Package logging provides leveled logging for animagif.
//
// Levels, from most to least verbose:
//   - DEBUG: frame drops, process arguments, cache hits
//   - INFO: recording and export lifecycle
//   - WARN: recoverable problems (missing encoders, failed cleanup)
//   - ERROR: failed operations
//   - FATAL: unrecoverable startup errors, exits the process
//
// The initial level comes from DEBUG or LOG_LEVEL. The config file may
// replace it later through SetLevel.
package logging
