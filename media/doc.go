// Package media models video sources: element handles, streams, tracks and cameras
//
// A Video is the element an overlay attaches to. Its frames come from a Stream, which is
// either supplied by the caller (file, still image, custom push source) or acquired from a
// Camera. Streams own their tracks; stopping every track ends the stream.
package media
