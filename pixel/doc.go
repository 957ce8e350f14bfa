// Package pixel implements the monochrome bitmap used by page addressed OLED controllers.
//
// The bitmap and its color model are compatible with Go's native [color.Color] and
// [image.Image] / [draw.Image] interfaces, so anything that can draw into a
// [draw.Image] can draw into a [Bitmap].
package pixel
