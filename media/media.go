// Package media prepares cover thumbnails and probes image resources for the
// layout pass.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Dim holds pixel dimensions of an image resource.
type Dim struct {
	Width  int
	Height int
}

// ExceedsViewport reports whether an image with these dimensions has to be
// scaled down to fit the viewport width.
func (d Dim) ExceedsViewport(viewportWidth int) bool {
	return viewportWidth > 0 && d.Width > viewportWidth
}

// ProbeSize reads just enough of data to report intrinsic image dimensions
// and the detected format without decoding pixels. SVG is not probed here.
func ProbeSize(data []byte) (Dim, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dim{}, "", fmt.Errorf("unable to probe image: %w", err)
	}
	return Dim{Width: cfg.Width, Height: cfg.Height}, format, nil
}

// IsSVG reports whether a resource holds an SVG image, either by declared
// media type or by looking at the payload. SVG is text, magic byte matching
// does not apply.
func IsSVG(mediaType string, data []byte) bool {
	if strings.Contains(strings.ToLower(mediaType), "svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

// SniffMediaType returns the declared media type unless it is missing or
// generic, in which case the payload magic bytes decide.
func SniffMediaType(data []byte, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return declared
}
