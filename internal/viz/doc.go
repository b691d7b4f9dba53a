// Package viz draws a running experiment in the terminal.
//
// The live view steps the experiment on a timer and renders its triangle
// sides and curve bonds as a braille wireframe next to a status panel
// with a center-of-mass height chart.
//
//	Space  pause / resume
//	N      single step while paused
//	F      follow the center of mass
//	Arrows turn the view
//	+ -    zoom
//	T      cycle themes
//	Q      quit
package viz
