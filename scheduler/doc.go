// Package scheduler provides the cooperative per-refresh loop that drives overlay renders
//
// A Loop is driven externally: hosts with their own frame callback (a game loop, a display
// refresh) call RunFrame directly, everything else wraps the Loop in a Ticker
package scheduler
