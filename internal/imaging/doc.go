// Package imaging is the image-decoding collaborator for the resolution
// core. It reads only dimensions and a downscaled pixel-intensity grid; the
// original image bytes are never altered. The core consumes the grid through
// the overlay package's interface, so alternative decoders can be swapped in.
package imaging
