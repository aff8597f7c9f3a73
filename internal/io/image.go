package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

// ImageService prepares cover art before it is embedded into audio files.
//
// Catalog covers are served as 800x800 JPEGs, but the service accepts any
// decodable image (JPEG or PNG) so that other cover sources can be used.
//
// Example usage:
//
//	svc := NewImageService()
//	cover, err := svc.PrepareCover(ctx, raw, 500, true)
type ImageService struct {
	quality int
}

// NewImageService creates a new ImageService encoding JPEGs at quality 90.
func NewImageService() *ImageService {
	return &ImageService{quality: 90}
}

// PrepareCover resizes data to fit maxSize x maxSize (when maxSize > 0) and
// re-encodes it as JPEG when toJPEG is set or a resize happened.
//
// Images that already fit and need no conversion are returned unchanged.
func (s *ImageService) PrepareCover(ctx context.Context, data []byte, maxSize int, toJPEG bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	needsResize := maxSize > 0 && (bounds.Dx() > maxSize || bounds.Dy() > maxSize)
	if !needsResize && (!toJPEG || format == "jpeg") {
		return data, nil
	}

	if needsResize {
		img = s.resize(img, maxSize, maxSize)
	}
	return s.encode(img)
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved and the result is JPEG-encoded. The
// Catmull-Rom kernel is used for scaling.
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return s.encode(s.resize(img, maxWidth, maxHeight))
}

// ConvertToJPEG converts an image to JPEG format.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return s.encode(img)
}

func (s *ImageService) resize(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxWidth || height > maxHeight {
		ratio := float64(width) / float64(height)
		if float64(maxWidth)/float64(maxHeight) > ratio {
			width = int(float64(maxHeight) * ratio)
			height = maxHeight
		} else {
			height = int(float64(maxWidth) / ratio)
			width = maxWidth
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func (s *ImageService) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
