// Package events provides the typed handler registry shared by media elements and the stage
package events
