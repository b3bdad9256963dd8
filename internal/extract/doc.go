// Package extract reads one scan point: its parameter file and its histogram
// bundle.
//
// A missing input file is a recoverable condition reported as a
// *MissingInputError; the caller skips the point and continues. Any other
// failure, including a bundle parse error, is fatal for the run.
//
// Input files may be compressed. A path ending in ".xz" is read through an
// xz decoder and one ending in ".gz" through gzip; anything else is read as
// plain text.
package extract
