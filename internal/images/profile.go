// Package images normalizes uploaded profile pictures. Every accepted upload
// is decoded, center-cropped to a square, scaled down, and re-encoded as
// WebP before it reaches storage.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// ProfilePictureSize is the edge length of a stored profile picture.
	ProfilePictureSize = 256

	// MaxUploadBytes bounds the raw upload before decoding.
	MaxUploadBytes = 5 << 20

	webpQuality = 85
)

// IsAllowedMIME reports whether the upload content type is an accepted
// image format.
func IsAllowedMIME(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// ProcessProfilePicture decodes the upload, squares and scales it, and
// returns the WebP bytes to persist.
func ProcessProfilePicture(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image upload")
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxUploadBytes)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	squared := cropToSquare(src)
	scaled := resizeTo(squared, ProfilePictureSize)

	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, scaled, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func cropToSquare(src image.Image) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == h {
		return src
	}

	edge := w
	if h < edge {
		edge = h
	}
	x := bounds.Min.X + (w-edge)/2
	y := bounds.Min.Y + (h-edge)/2

	dst := image.NewRGBA(image.Rect(0, 0, edge, edge))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func resizeTo(src image.Image, edge int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() == edge && bounds.Dy() == edge {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, edge, edge))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
