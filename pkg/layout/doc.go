// Package layout positions the scenes of a story graph on a 2D canvas with
// an iterative force-directed simulation.
//
// Each tick pushes nearby nodes apart, pulls edge endpoints toward an ideal
// length, nudges everything toward the canvas center and biases each node
// toward a coordinate proportional to its BFS depth from the start scene, so
// the story reads in the configured direction. Call Step once per frame to
// animate, or Run to iterate until the total velocity falls below the
// convergence threshold.
package layout
