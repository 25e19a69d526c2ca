// Package overlay computes the render plan for an image's metadata display:
// which fields form the compact bar, their chip content and colors, which
// corner the bar sits in, and where free-pinned fields are anchored.
//
// It never draws pixels. Corner choice uses a deterministic busyness
// heuristic over an externally supplied intensity grid, behind an interface
// so it stays replaceable. Positions are clamped into the safe margin and
// optionally snapped to a grid, always at 4-decimal precision.
package overlay
