package imaging

import (
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ImageCache provides thread-safe caching of decoded images keyed by path.
//
// Rendering a split decodes every image once; the tool server keeps a cache
// across calls so repeated renders and crops of the same image skip the
// decode. Cached images stay in memory until Evict or Clear is called.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load returns the cached image for path, decoding it from disk on first use.
// EXIF orientation is applied so boxes line up with what annotators saw.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a single image from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Save encodes img according to the extension of path: PNG for ".png",
// JPEG (quality 90) otherwise.
func Save(path string, img image.Image) error {
	encoder := imgio.JPEGEncoder(90)
	if strings.EqualFold(filepath.Ext(path), ".png") {
		encoder = imgio.PNGEncoder()
	}
	if err := imgio.Save(path, img, encoder); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}
