package imgproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// FailureCategory classifies why an upload could not be decoded.
// It is diagnostic only: the category refines the error message but the
// outcome is the same InvalidImage failure.
type FailureCategory string

const (
	CategoryEmptyBuffer       FailureCategory = "empty_buffer"
	CategoryUnsupportedFormat FailureCategory = "unsupported_format"
	CategoryCorruptData       FailureCategory = "corrupt_data"
	CategoryUnknownFormat     FailureCategory = "unknown_format"
)

// InvalidImageError is returned when an uploaded buffer cannot be decoded
// into a raster. It carries a remediation hint for the client.
type InvalidImageError struct {
	Category FailureCategory
	Hint     string
	Err      error
}

func (e *InvalidImageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid image (%s): %v", e.Category, e.Err)
	}
	return fmt.Sprintf("invalid image (%s)", e.Category)
}

func (e *InvalidImageError) Unwrap() error { return e.Err }

// Metadata captures lightweight information about a decoded upload.
type Metadata struct {
	Format    string
	SizeBytes int
	Width     int
	Height    int
}

// Decode decodes an uploaded byte buffer into an NRGBA raster. The declared
// MIME type and the buffer's leading bytes only influence the diagnostic
// category when decoding fails; they never rescue a failed decode.
func Decode(data []byte, declaredMIME string) (*image.NRGBA, Metadata, error) {
	if len(data) == 0 {
		return nil, Metadata{}, &InvalidImageError{
			Category: CategoryEmptyBuffer,
			Hint:     "the uploaded file is empty; choose a valid image file",
			Err:      errors.New("empty buffer"),
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Metadata{}, classifyDecodeFailure(data, declaredMIME, err)
	}

	b := img.Bounds()
	meta := Metadata{
		Format:    format,
		SizeBytes: len(data),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}

	return toNRGBA(img), meta, nil
}

// classifyDecodeFailure inspects the leading bytes against known signatures
// so the error message can distinguish a recognized-but-corrupt image from
// bytes that are not an image at all.
func classifyDecodeFailure(data []byte, declaredMIME string, err error) *InvalidImageError {
	if sniffSignature(data) != "" {
		return &InvalidImageError{
			Category: CategoryCorruptData,
			Hint:     "the image file appears damaged; re-export or re-photograph it",
			Err:      err,
		}
	}
	if declaredMIME != "" && !isImageMIME(declaredMIME) {
		return &InvalidImageError{
			Category: CategoryUnsupportedFormat,
			Hint:     fmt.Sprintf("content type %q is not a supported image format; upload JPEG, PNG, GIF, BMP or WebP", declaredMIME),
			Err:      err,
		}
	}
	return &InvalidImageError{
		Category: CategoryUnknownFormat,
		Hint:     "the file does not look like an image; upload JPEG, PNG, GIF, BMP or WebP",
		Err:      err,
	}
}

// sniffSignature returns the format whose magic number matches the leading
// bytes, or "" when none does. Matches the signatures from the upload
// validation this service replaces: JPEG is FF D8 FF plus E0/E1/DB at offset
// 3, WebP is a RIFF container with WEBP at offset 8.
func sniffSignature(data []byte) string {
	if len(data) >= 4 &&
		data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF &&
		(data[3] == 0xE0 || data[3] == 0xE1 || data[3] == 0xDB) {
		return "jpeg"
	}
	if len(data) >= 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "png"
	}
	if len(data) >= 4 && data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "gif"
	}
	if len(data) >= 12 &&
		data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "webp"
	}
	return ""
}

func isImageMIME(mime string) bool {
	return len(mime) >= 6 && mime[:6] == "image/"
}

// toNRGBA copies an arbitrary decoded image into an NRGBA raster so the
// later stages can mutate pixels in place.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
