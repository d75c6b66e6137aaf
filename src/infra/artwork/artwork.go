// Package artwork analyzes embedded cover images of media files.
package artwork

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"image"

	"github.com/nfnt/resize"

	"tonearm/src/music"

	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ThumbnailEdge is the edge length of the preview thumbnail in pixels.
const ThumbnailEdge = 4

// Artwork is the analyzed form of one embedded cover image.
type Artwork struct {
	// Digest is the SHA-256 over the raw encoded image bytes.
	Digest music.Digest
	// MediaType is the detected image format, e.g. "image/jpeg".
	MediaType string
	// Width and Height are the pixel dimensions of the image.
	Width  int
	Height int
	// Thumbnail is a 4x4 RGB preview, row-major, 48 bytes. It survives
	// re-encoding of the same picture and is cheap to compare.
	Thumbnail [ThumbnailEdge * ThumbnailEdge * 3]byte
}

// Analyze decodes an embedded image and computes its digest and preview
// thumbnail. Data that does not decode as jpeg, png, gif or webp is
// rejected.
func Analyze(data []byte) (*Artwork, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork image: %w", err)
	}

	bounds := img.Bounds()
	artwork := &Artwork{
		Digest:    sha256.Sum256(data),
		MediaType: "image/" + format,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
	}

	thumb := resize.Resize(ThumbnailEdge, ThumbnailEdge, img, resize.Lanczos3)
	i := 0
	for y := 0; y < ThumbnailEdge; y++ {
		for x := 0; x < ThumbnailEdge; x++ {
			r, g, b, _ := thumb.At(thumb.Bounds().Min.X+x, thumb.Bounds().Min.Y+y).RGBA()
			artwork.Thumbnail[i] = byte(r >> 8)
			artwork.Thumbnail[i+1] = byte(g >> 8)
			artwork.Thumbnail[i+2] = byte(b >> 8)
			i += 3
		}
	}
	return artwork, nil
}
