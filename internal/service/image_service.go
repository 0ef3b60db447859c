package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaDir             = "media"
	DefaultImageMaxUploadSizeMB = 5
	// PostImageDir is the media subdirectory post images are stored in.
	PostImageDir = "posts"
	MaxImageSize = 1920
	JPEGQuality  = 82
	WebPQuality  = 70
)

const invalidImageMessage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// ImageUpload is an image file received with a post form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageStore persists post images and returns their media-relative path.
type ImageStore interface {
	Save(ctx context.Context, in ImageUpload) (string, error)
}

// ImageService validates uploaded images, downsizes them and writes a JPEG
// master plus a WebP sibling under the media directory.
type ImageService struct {
	mediaDir           string
	maxUploadSizeBytes int64
}

func NewImageService(cfg *config.Config) *ImageService {
	mediaDir := DefaultMediaDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.MediaDir != "" {
			mediaDir = cfg.MediaDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &ImageService{
		mediaDir:           mediaDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MediaDir is the root directory images are written under.
func (s *ImageService) MediaDir() string {
	return s.mediaDir
}

func imageFieldError(msg string) error {
	return models.NewFieldValidationError(map[string][]string{"image": {msg}})
}

// Save stores the upload and returns a path such as "posts/<hash>.jpg".
// Identical content maps to the same path.
func (s *ImageService) Save(_ context.Context, in ImageUpload) (string, error) {
	if len(in.Content) == 0 {
		return "", imageFieldError("The submitted file is empty.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", imageFieldError(fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)))
	}

	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return "", imageFieldError(invalidImageMessage)
	}
	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", imageFieldError(invalidImageMessage)
	}

	resized := resizeToFit(decoded, MaxImageSize, MaxImageSize)
	encodedJPG, err := encodeJPEG(resized, JPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	encodedWebP, err := encodeWebP(resized, WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	hash := contentHash(encodedJPG)
	jpgRel := filepath.ToSlash(filepath.Join(PostImageDir, hash+".jpg"))
	webpRel := WebPPath(jpgRel)

	jpgAbs := filepath.Join(s.mediaDir, filepath.FromSlash(jpgRel))
	webpAbs := filepath.Join(s.mediaDir, filepath.FromSlash(webpRel))
	if err := writeBytesToFile(jpgAbs, encodedJPG); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpAbs, encodedWebP); err != nil {
		_ = os.Remove(jpgAbs)
		return "", models.NewInternalError(err)
	}
	return jpgRel, nil
}

// WebPPath returns the WebP sibling of a stored JPEG path.
func WebPPath(jpgRel string) string {
	if jpgRel == "" {
		return ""
	}
	return strings.TrimSuffix(jpgRel, filepath.Ext(jpgRel)) + ".webp"
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:16])
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
