// Package capture turns a stream of screen frames into a video file.
//
// A Pipeline owns at most one Session at a time. Start validates the
// capture Geometry, derives pixel dimensions from the Configuration and
// opens a ContainerWriter. Frames are pushed into the session from any
// goroutine through OnFrame; the first frame becomes the zero point of the
// recording clock and every later frame is timestamped relative to it.
// Stop finalizes the container and returns its path.
//
// Ingestion never blocks the producer. When the writer's bounded queue is
// full the incoming frame is dropped, and frames that arrive after Stop has
// begun are dropped as well. Drops are counted, not reported.
//
// Frame sources are pluggable: ScreenSource polls a screen rectangle with
// github.com/kbinani/screenshot, SyntheticSource generates frames with
// explicit timestamps for tests and dry runs.
package capture
