package pipeline

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/blogport/media-pipeline/internal/media/models"
)

// WebPQuality is the fixed encoder setting for every variant.
const WebPQuality = 80

const (
	maxDecodeEdgePx  = 6000
	maxDecodePixels  = 20_000_000
	variantMimeType  = "image/webp"
	manifestMimeType = "application/json"
	thumbnailEdgePx  = 150
	smallMaxEdgePx   = 400
	mediumMaxEdgePx  = 800
	largeMaxEdgePx   = 1600
)

// sizeTarget describes one derivative. The thumbnail is a center-cropped
// square; the other classes fit inside a max edge preserving aspect ratio
// and are never upscaled past the source.
type sizeTarget struct {
	class   models.SizeClass
	maxEdge int
	square  bool
}

var sizeTargets = [4]sizeTarget{
	{class: models.Thumbnail, maxEdge: thumbnailEdgePx, square: true},
	{class: models.Small, maxEdge: smallMaxEdgePx},
	{class: models.Medium, maxEdge: mediumMaxEdgePx},
	{class: models.Large, maxEdge: largeMaxEdgePx},
}

type renderedVariant struct {
	class  models.SizeClass
	data   []byte
	width  int
	height int
}

type sourceFormat string

const (
	formatJPEG    sourceFormat = "jpeg"
	formatPNG     sourceFormat = "png"
	formatWebP    sourceFormat = "webp"
	formatUnknown sourceFormat = ""
)

// detectFormat sniffs magic bytes; the client-declared MIME type is never
// trusted past the policy check.
func detectFormat(data []byte) sourceFormat {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return formatJPEG
	case len(data) >= 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return formatPNG
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return formatWebP
	default:
		return formatUnknown
	}
}

// decodeOriginal validates and decodes the uploaded bytes into a pixel
// buffer. Any failure here sends the media to failed.
func decodeOriginal(data []byte) (image.Image, error) {
	format := detectFormat(data)
	if format == formatUnknown {
		return nil, fmt.Errorf("unsupported format: only JPEG, PNG and WebP are accepted")
	}

	var (
		img image.Image
		err error
	)
	if format == formatWebP {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, err = imaging.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxDecodeEdgePx || h > maxDecodeEdgePx {
		return nil, fmt.Errorf("image %dx%d exceeds max edge %dpx", w, h, maxDecodeEdgePx)
	}
	if int64(w)*int64(h) > maxDecodePixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", w, h, maxDecodePixels)
	}
	return img, nil
}

// renderVariant downscales and re-encodes one derivative. Re-encoding from
// raw pixels also strips any source metadata.
func renderVariant(src image.Image, target sizeTarget) (renderedVariant, error) {
	var resized image.Image
	if target.square {
		resized = imaging.Fill(src, target.maxEdge, target.maxEdge, imaging.Center, imaging.Lanczos)
	} else {
		resized = imaging.Fit(src, target.maxEdge, target.maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: WebPQuality}); err != nil {
		return renderedVariant{}, fmt.Errorf("encode %s: %w", target.class, err)
	}

	b := resized.Bounds()
	return renderedVariant{
		class:  target.class,
		data:   buf.Bytes(),
		width:  b.Dx(),
		height: b.Dy(),
	}, nil
}
