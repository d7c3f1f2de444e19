package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode enumerates supported edit request modes.
type Mode string

const (
	ModeImageToImage Mode = "image-to-image"
	ModeTextToImage  Mode = "text-to-image"
)

// MaxPromptLen is the upper prompt length enforced at the input boundary.
const MaxPromptLen = 2000

// ParseMode sanitizes free-form input into a supported mode.
func ParseMode(mode string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case string(ModeImageToImage), "i2i", "edit":
		return ModeImageToImage, nil
	case string(ModeTextToImage), "t2i", "generate", "":
		return ModeTextToImage, nil
	default:
		return "", fmt.Errorf("unsupported mode %q", mode)
	}
}

// SourceImage is a user-supplied input image, immutable once captured.
type SourceImage struct {
	Bytes    []byte
	MIMEType string
}

// EditRequest describes one submission. Constructed fresh per submit and
// never mutated afterwards.
type EditRequest struct {
	Mode        Mode
	Prompt      string
	SourceImage *SourceImage
}

// Validate enforces the core preconditions: a non-empty prompt within the
// length ceiling, and a source image present exactly when the mode calls
// for one.
func (r EditRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return Validation("prompt is required")
	}
	if len(r.Prompt) > MaxPromptLen {
		return Validation(fmt.Sprintf("prompt exceeds %d characters", MaxPromptLen))
	}
	if r.Mode == ModeImageToImage && (r.SourceImage == nil || len(r.SourceImage.Bytes) == 0) {
		return Validation("image-to-image mode requires a source image")
	}
	return nil
}

// EditResult is the transformed image. It is never persisted; it lives on
// the owning controller until overwritten or the session expires.
type EditResult struct {
	ImageBytes []byte
	MIMEType   string
}

// AspectRatio is a parsed "W:H" target ratio used for the optional crop.
type AspectRatio struct {
	W int
	H int
}

// ParseAspectRatio parses an enumerated "W:H" ratio string.
func ParseAspectRatio(s string) (AspectRatio, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q", s)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q", s)
	}
	return AspectRatio{W: w, H: h}, nil
}

// Value returns the ratio as width over height.
func (a AspectRatio) Value() float64 {
	return float64(a.W) / float64(a.H)
}

func (a AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", a.W, a.H)
}
