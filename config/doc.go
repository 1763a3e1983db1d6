// Package config loads the TOML configuration shared by the overlay hosts
//
// Example:
//
//	[app]
//	fps = 30
//	surface = "cells"
//	source = "camera"
//
//	[overlay]
//	color = "#3AA0FF"
//	density = 6
//	show_video = true
//
//	[keys]
//	i = "invert"
//	space = "snapshot"
package config
