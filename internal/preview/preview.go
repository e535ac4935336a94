// Package preview renders selected images as small terminal thumbnails.
//
// Every thumbnail built by a Store is a live handle until it is released;
// callers release the previous batch before building the next one so that
// decoded pixel data does not accumulate across submissions.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	exif "github.com/dsoprea/go-exif/v3"
	"golang.org/x/sync/errgroup"

	"cellscan/pkg/utils"
)

// Options controls thumbnail size (in terminal cells) and decode concurrency.
type Options struct {
	Width       int
	Height      int
	Concurrency int
}

// Thumbnail is one rendered preview.
type Thumbnail struct {
	Path string
	Name string
	Size int64

	// Source dimensions in pixels.
	Width  int
	Height int

	// From EXIF, when present.
	Camera string
	Taken  string

	Art string
	Err error

	id int
}

// Caption is the one-line label printed under the thumbnail.
func (t *Thumbnail) Caption(maxLen int) string {
	name := utils.TruncateFilename(t.Name, maxLen)
	if t.Err != nil {
		return name + " (unreadable)"
	}
	return fmt.Sprintf("%s %s", name, utils.HumanizeBytesCompact(t.Size))
}

// Detail describes the source image: its pixel size and, when the file
// carries EXIF, the camera and capture time.
func (t *Thumbnail) Detail() string {
	var parts []string
	if t.Width > 0 && t.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d px", t.Width, t.Height))
	}
	if t.Camera != "" {
		parts = append(parts, t.Camera)
	}
	if t.Taken != "" {
		parts = append(parts, "taken "+t.Taken)
	}
	return strings.Join(parts, " · ")
}

// Store builds thumbnails and tracks which ones are still live.
type Store struct {
	opts Options

	mu   sync.Mutex
	next int
	live map[int]*Thumbnail
}

// NewStore returns an empty store.
func NewStore(opts Options) *Store {
	if opts.Width < 1 {
		opts.Width = 1
	}
	if opts.Height < 1 {
		opts.Height = 1
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Store{opts: opts, live: make(map[int]*Thumbnail)}
}

// Build renders one thumbnail per path, in input order. Unreadable images
// produce a placeholder thumbnail with Err set rather than failing the batch;
// the only error returned is ctx's.
func (s *Store) Build(ctx context.Context, paths []string) ([]*Thumbnail, error) {
	out := make([]*Thumbnail, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.render(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range out {
		s.next++
		t.id = s.next
		s.live[t.id] = t
	}
	return out, nil
}

// Release drops the given thumbnails and returns how many were live.
func (s *Store) Release(ts []*Thumbnail) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range ts {
		if t == nil {
			continue
		}
		if _, ok := s.live[t.id]; ok {
			delete(s.live, t.id)
			t.Art = ""
			n++
		}
	}
	return n
}

// ReleaseAll drops every live thumbnail.
func (s *Store) ReleaseAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.live)
	for id, t := range s.live {
		t.Art = ""
		delete(s.live, id)
	}
	return n
}

// Live returns the number of thumbnails not yet released.
func (s *Store) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *Store) render(path string) *Thumbnail {
	t := &Thumbnail{Path: path, Name: filepath.Base(path)}
	data, err := os.ReadFile(path) //nolint:gosec // user selected image
	if err != nil {
		t.Err = err
		t.Art = placeholder(s.opts.Width, s.opts.Height)
		return t
	}
	t.Size = int64(len(data))
	t.Camera, t.Taken = readExif(data)

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		t.Err = err
		t.Art = placeholder(s.opts.Width, s.opts.Height)
		return t
	}
	b := img.Bounds()
	t.Width, t.Height = b.Dx(), b.Dy()
	// each cell holds two vertically stacked pixels
	fit := imaging.Fit(img, s.opts.Width, s.opts.Height*2, imaging.Box)
	t.Art = halfBlocks(fit)
	return t
}

// halfBlocks draws img with the upper half block glyph: foreground is the top
// pixel, background the bottom one.
func halfBlocks(img *image.NRGBA) string {
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			st := lipgloss.NewStyle().Foreground(hexColor(img, x, y))
			if y+1 < b.Max.Y {
				st = st.Background(hexColor(img, x, y+1))
			}
			sb.WriteString(st.Render("▀"))
		}
		if y+2 < b.Max.Y {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hexColor(img *image.NRGBA, x, y int) lipgloss.Color {
	c := img.NRGBAAt(x, y)
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func placeholder(w, h int) string {
	row := strings.Repeat("░", w)
	rows := make([]string, h)
	for i := range rows {
		rows[i] = row
	}
	return strings.Join(rows, "\n")
}

// readExif returns the camera model and capture time, if the image has them.
func readExif(data []byte) (camera, taken string) {
	raw, err := exif.SearchAndExtractExif(data)
	if err != nil || raw == nil {
		return "", ""
	}
	entries, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return "", ""
	}
	var maker, model string
	for _, e := range entries {
		switch e.TagName {
		case "Make":
			maker = strings.TrimSpace(e.Formatted)
		case "Model":
			model = strings.TrimSpace(e.Formatted)
		case "DateTimeOriginal":
			taken = e.Formatted
		case "DateTime":
			if taken == "" {
				taken = e.Formatted
			}
		}
	}
	camera = strings.TrimSpace(maker + " " + model)
	return camera, taken
}
