package generators

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

const thumbnailWidth = 256

// Thumbnailer derives a small preview image for a generated or uploaded
// media item and stores it alongside the original, for the media library's
// search result previews.
type Thumbnailer struct {
	store capability.ObjectStorePort
}

func NewThumbnailer(store capability.ObjectStorePort) *Thumbnailer {
	return &Thumbnailer{store: store}
}

// Generate decodes content, downsizes it to thumbnailWidth preserving
// aspect ratio, and stores it as a JPEG under a derived key.
func (t *Thumbnailer) Generate(ctx context.Context, sourceKey string, content []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "generators: decode image for thumbnail", err)
	}

	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "generators: encode thumbnail", err)
	}

	uri, err := t.store.Put(ctx, sourceKey+"-thumb", buf.Bytes(), "image/jpeg")
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "generators: store thumbnail", err)
	}
	return uri, nil
}
