package imgutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoding

	"editlab/internal/domain"
)

var dataURLRegex = regexp.MustCompile(`^data:([^;]+);base64,`)

// Decode validates raw upload bytes as an image and captures its MIME type.
// The bytes themselves are kept untouched.
func Decode(raw []byte) (domain.SourceImage, error) {
	if len(raw) == 0 {
		return domain.SourceImage{}, domain.Decode("image is empty", nil)
	}
	_, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return domain.SourceImage{}, domain.Decode("unsupported or corrupt image", err)
	}
	return domain.SourceImage{Bytes: raw, MIMEType: "image/" + format}, nil
}

// CropToRatio cuts the largest centered region of the target ratio out of
// the image and re-encodes it as PNG. The geometry is deterministic: the
// shorter axis is kept whole and the other is truncated to fit the ratio,
// with the origin at half the remainder.
func CropToRatio(imageBytes []byte, ratio domain.AspectRatio) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, domain.Decode("result bytes could not be decoded", err)
	}

	bounds := src.Bounds()
	rect := cropRect(bounds.Dx(), bounds.Dy(), ratio.Value()).Add(bounds.Min)
	if rect.Dx() < 1 || rect.Dy() < 1 {
		return nil, domain.Raster(fmt.Sprintf("crop region %dx%d is empty", rect.Dx(), rect.Dy()), nil)
	}

	cropped := imaging.Crop(src, rect)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.PNG); err != nil {
		return nil, domain.Raster("encode cropped image", err)
	}
	return buf.Bytes(), nil
}

func cropRect(w0, h0 int, target float64) image.Rectangle {
	if float64(w0)/float64(h0) > target {
		cropW := int(float64(h0) * target)
		x := (w0 - cropW) / 2
		return image.Rect(x, 0, x+cropW, h0)
	}
	cropH := int(float64(w0) / target)
	y := (h0 - cropH) / 2
	return image.Rect(0, y, w0, y+cropH)
}

// EncodeDataURL renders bytes as a base64 data URL.
func EncodeDataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURL splits a base64 data URL into payload bytes and MIME type.
func DecodeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	match := dataURLRegex.FindStringSubmatch(s)
	if len(match) != 2 {
		return nil, "", domain.Decode("not a base64 data URL", nil)
	}
	data, err := base64.StdEncoding.DecodeString(s[len(match[0]):])
	if err != nil {
		return nil, "", domain.Decode("invalid base64 payload", err)
	}
	return data, match[1], nil
}

// ExtensionForMIME maps an image MIME type to a download file extension.
func ExtensionForMIME(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
