package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/image-unshred/internal/unshred"
)

// ImageCache provides thread-safe caching of decoded frames to avoid redundant
// disk reads and pixel conversion.
//
// Frames are keyed by the exact path string passed to Load. Once a file is
// loaded, later Load calls return the same *Frame without touching the disk.
// Callers must treat cached frames as read-only.
//
// # Memory Management
//
// Cached frames stay in memory until removed with Evict or Clear. A frame
// costs four bytes per pixel.
type ImageCache struct {
	mu     sync.RWMutex
	frames map[string]*Frame
}

// NewImageCache creates and initializes a new empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		frames: make(map[string]*Frame),
	}
}

// Load returns the frame for path, decoding the file on first use.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. A file that cannot
// be opened or decoded is reported with an error wrapping
// unshred.ErrPixelAcquisition.
func (c *ImageCache) Load(path string) (*Frame, error) {
	c.mu.RLock()
	if f, ok := c.frames[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	frame, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.frames[path] = frame
	c.mu.Unlock()

	return frame, nil
}

// Clear removes all frames from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]*Frame)
	c.mu.Unlock()
}

// Evict removes the frame loaded from path, if any. The next Load for the
// path reads the file again, which matters when the file was rewritten.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	c.mu.Unlock()
}

// Len returns the number of cached frames.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// LoadFile decodes the image at path without caching it.
func LoadFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w: %w", err, unshred.ErrPixelAcquisition)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads an encoded image from r and converts it to a Frame.
func Decode(r io.Reader) (*Frame, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w: %w", err, unshred.ErrPixelAcquisition)
	}

	frame, err := FromImage(img)
	if err != nil {
		return nil, err
	}
	frame.Format = format
	return frame, nil
}

// DecodeBytes is Decode over an in-memory encoded image.
func DecodeBytes(data []byte) (*Frame, error) {
	return Decode(bytes.NewReader(data))
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder name: "png", "jpeg", "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// StripCounts lists every strip count that divides the width into strips
	// at least two pixels wide, in increasing order. A shredded image's real
	// strip count is one of these.
	StripCounts []int `json:"strip_counts"`
}

// LoadImageInfo loads an image through the cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	frame, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:         frame.Width,
		Height:        frame.Height,
		Format:        frame.Format,
		FileSizeBytes: stat.Size(),
		StripCounts:   StripCounts(frame.Width, 2),
	}, nil
}

// StripCounts returns the strip counts n > 1 for which width/n is a whole
// number of at least minWidth pixels, in increasing order.
func StripCounts(width, minWidth int) []int {
	if minWidth < 1 {
		minWidth = 1
	}
	var counts []int
	for n := 2; n <= width/minWidth; n++ {
		if width%n == 0 {
			counts = append(counts, n)
		}
	}
	return counts
}
