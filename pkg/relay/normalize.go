package relay

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// NormalizeImage re-encodes the image at srcPath as a size x size JPEG at
// dstPath. The model was trained on fixed-size squashed inputs, so the
// resize deliberately ignores aspect ratio.
func NormalizeImage(srcPath, dstPath string, size int) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Src, nil)

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create normalized image: %w", err)
	}
	defer dst.Close()

	if err := jpeg.Encode(dst, resized, &jpeg.Options{Quality: 92}); err != nil {
		return fmt.Errorf("failed to encode normalized image: %w", err)
	}

	return nil
}
