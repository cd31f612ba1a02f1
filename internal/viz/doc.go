// Package viz renders lensing state in the terminal.
//
// Images are drawn either as shaded character heatmaps ([Heatmap]) or as
// thresholded Braille plots ([Canvas]). [DrawTree] prints a parameter tree,
// [PlotSeries] a loss history, and [Explorer] is a Bubble Tea model that
// re-renders the image while the dynamic parameters are nudged by hand.
//
// # Explorer Key Bindings
//
//	Tab/Shift+Tab - Select next/previous parameter
//	Up/Down, K/J  - Nudge the selected parameter
//	[ ]           - Shrink/grow the nudge step
//	P             - Cycle heatmap palettes
//	R             - Reset to the initial vector
//	Q             - Quit
package viz
