/*
Package workers sizes worker pools from the CPUs the process may use.

runtime.NumCPU reports the host's CPUs even when the process is limited by
cgroups or taskset; GOMAXPROCS follows those limits (Go 1.19+), so the
helpers here derive counts from it:

	// concurrent ffmpeg exports, honoring [export] workers from the config
	n := workers.ForExport(cfg.Export.Workers)

	// custom ratio: 3 workers per CPU, no maximum
	n := workers.Count(3.0, 0)

# Environment Variable Override

All functions respect ANIMAGIF_EXPORT_WORKERS, which pins the count
regardless of the CPU calculation or configuration:

	ANIMAGIF_EXPORT_WORKERS=2 animagif export --all

Values that are not positive integers are ignored.

# Thread Safety

All functions in this package are safe for concurrent use. They read from
runtime.GOMAXPROCS and environment variables, which are themselves thread-safe.
*/
package workers
