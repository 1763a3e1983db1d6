// Package sampler downsamples video frames into a coarse luminance grid
//
// Geometry is derived from source dimensions and a density (source pixels per sample
// cell) and recomputed only when the observed dimensions change or a refresh is forced
package sampler
