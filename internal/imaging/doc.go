// Package imaging implements the transform engine of the proxy.
//
// An Engine decodes raw bytes into an Image, the Image applies transform
// steps from package spec in order, and Encode serializes the result. The
// only implementation, NativeEngine, is built on github.com/disintegration/imaging
// with bild for contrast and go-colorful for colour grading. Callers depend
// on the Engine and Image interfaces only.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Steps
//
//   - Resize: exact width x height with the named kernel (nearest, triangle,
//     Catmull-Rom, Gaussian, Lanczos3). Zero dimensions are an error.
//   - Crop: the region must be non-empty and inside the image.
//   - FlipH, FlipV: mirror the buffer.
//   - Contrast: bild's contrast adjustment, amount in [-1, 1].
//   - Filter: a colour-grading preset (oceanic, islands, marine).
//   - Watermark: alpha-composites the overlay at an offset; pixels outside
//     the buffer are clipped.
//
// # Ownership
//
// An Image belongs to exactly one request. It is not safe for concurrent use
// and cannot be reused: Encode releases the buffer, and a failed Apply
// discards it so no partially transformed pixels can escape.
//
// # Input Containers
//
// JPEG, PNG, GIF, BMP, TIFF and WebP are decoded. EXIF orientation is
// applied on load. Images larger than MaxPixels are rejected before their
// pixel data is decoded.
package imaging
