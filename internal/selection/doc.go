// Package selection resolves the screen region to record.
//
// A region comes from a drag gesture (FromDrag), a command-line value in
// "x,y,w,h" form (Parse, Static) or an interactive terminal prompt
// (Prompt). Regions are display-local and must exceed MinSize in both
// dimensions; anything smaller is treated as an accidental click.
package selection
