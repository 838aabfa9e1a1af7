package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"mime"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"epr/jpegquality"
)

const (
	// Flag defaults for cover extraction.
	DefaultThumbWidth  = 600
	DefaultThumbHeight = 800

	thumbJPEGQuality = 75
	thumbDPI         = 300
)

// Thumbnail is a prepared cover image ready to hand to the host.
type Thumbnail struct {
	Data      []byte
	MediaType string
	Dim       Dim
}

// MakeThumbnail converts a cover resource into a bounded thumbnail. Raster
// sources are decoded and fitted into maxW x maxH, SVG sources are rasterized
// into the same box. A JPEG source that already fits the box and is encoded
// at or below the target quality passes through untouched.
func MakeThumbnail(src []byte, mediaType string, maxW, maxH int, log *zap.Logger) (*Thumbnail, error) {
	if maxW <= 0 {
		maxW = DefaultThumbWidth
	}
	if maxH <= 0 {
		maxH = DefaultThumbHeight
	}

	if IsSVG(mediaType, src) {
		img, err := RasterizeSVG(src, maxW, maxH)
		if err != nil {
			return nil, fmt.Errorf("unable to rasterize SVG cover: %w", err)
		}
		return encodeThumb(img)
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("unable to decode cover image: %w", err)
	}

	dim := Dim{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	needsResize := dim.Width > maxW || dim.Height > maxH

	if !needsResize && format == "jpeg" {
		// Reencoding an already small and already lossy cover only loses
		// information.
		if jr, err := jpegquality.NewWithBytes(src); err == nil && jr.Quality() <= thumbJPEGQuality {
			log.Debug("Cover already within bounds and quality, keeping original",
				zap.Int("width", dim.Width), zap.Int("height", dim.Height), zap.Int("quality", jr.Quality()))
			return &Thumbnail{Data: src, MediaType: mime.TypeByExtension(".jpeg"), Dim: dim}, nil
		}
	}

	if needsResize {
		log.Debug("Resizing cover image",
			zap.Int("width", dim.Width), zap.Int("height", dim.Height),
			zap.Int("max_width", maxW), zap.Int("max_height", maxH))
		resized := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
		if resized == nil {
			return nil, fmt.Errorf("unable to resize cover image %dx%d", dim.Width, dim.Height)
		}
		img = resized
	}

	// Thumbnails are always opaque.
	img = flattenWhite(img)

	return encodeThumb(img)
}

func flattenWhite(img image.Image) image.Image {
	opaque := func(im image.Image) bool {
		if o, ok := im.(interface{ Opaque() bool }); ok {
			return o.Opaque()
		}
		return true
	}(img)
	if opaque {
		return img
	}
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
	draw.Draw(dst, img.Bounds(), img, img.Bounds().Min, draw.Over)
	return dst
}

func encodeThumb(img image.Image) (*Thumbnail, error) {
	data, err := EncodeJPEGWithDPI(img, thumbJPEGQuality, DpiPxPerInch, thumbDPI, thumbDPI)
	if err != nil {
		return nil, fmt.Errorf("unable to encode cover thumbnail: %w", err)
	}
	return &Thumbnail{
		Data:      data,
		MediaType: mime.TypeByExtension(".jpeg"),
		Dim:       Dim{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()},
	}, nil
}
