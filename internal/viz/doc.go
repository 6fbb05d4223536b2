// Package viz renders evaluation results in the terminal.
//
//   - [RenderSummary] and [RenderCase]: styled batch and per-case reports
//   - [ProfileGraph]: asciigraph plot of a maneuver's speed or power
//   - [Browse]: Bubble Tea browser over the cases of a run
//
// # Key Bindings
//
//	j/k, ↓/↑ - Next/previous case
//	s        - Show the speed profile
//	p        - Show the power profile
//	g/G      - First/last case
//	q        - Quit
package viz
