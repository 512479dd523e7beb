package processor

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
)

func (p *ImageProcessor) encodeImage(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(p.quality))
}

// resizeImage keeps the aspect ratio inside a maxDimension square.
func (p *ImageProcessor) resizeImage(img image.Image) image.Image {
	return imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)
}
