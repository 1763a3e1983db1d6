// Package host assembles a runnable overlay session for the command line programs
//
// A Session owns the scheduler loop, the stage with its single video layer, the overlay
// manager and the attached instance. Hosts drive the loop, present the surface and feed
// key actions back through Do on the loop goroutine.
package host
