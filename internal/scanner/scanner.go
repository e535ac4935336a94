package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Image is a selected image file.
type Image struct {
	Path string
	Size int64
}

// Options defines how inputs are expanded.
type Options struct {
	MaxDepth      int      // -1 unlimited; 1 means only files directly inside a directory
	FollowSymlink bool     // descend into symlinked directories
	Excludes      []string // glob patterns matched against full path and base name
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsImage reports whether p has a supported image extension.
func IsImage(p string) bool {
	return imageExts[strings.ToLower(filepath.Ext(p))]
}

// SplitInput splits the raw path field into entries. Entries are separated by
// whitespace or commas.
func SplitInput(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// CollectImages expands inputs (files, directories or glob patterns) into an
// ordered, de-duplicated list of image files. Inputs that cannot be read are
// reported in the returned error; whatever was found is still returned.
func CollectImages(ctx context.Context, inputs []string, opts Options) ([]Image, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		out  []Image
		errs []error
		seen = make(map[string]struct{})
	)
	add := func(p string, size int64) {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		out = append(out, Image{Path: p, Size: size})
	}

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		paths := []string{in}
		if hasMeta(in) {
			matches, err := filepath.Glob(in)
			if err != nil {
				errs = append(errs, fmt.Errorf("bad pattern %s: %w", in, err))
				continue
			}
			if len(matches) == 0 {
				errs = append(errs, fmt.Errorf("no match for %s", in))
				continue
			}
			paths = matches
		}
		for _, p := range paths {
			info, err := os.Stat(p)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !info.IsDir() {
				if IsImage(p) && !excluded(p, opts.Excludes) {
					add(p, info.Size())
				}
				continue
			}
			found, err := walkImages(ctx, p, opts)
			if err != nil {
				errs = append(errs, err)
			}
			for _, img := range found {
				add(img.Path, img.Size)
			}
		}
	}
	return out, combineErrors(errs)
}

// walkImages returns the image files under root in lexical order.
func walkImages(ctx context.Context, root string, opts Options) ([]Image, error) {
	var found []Image
	var walkErrs []error
	rootDepth := depthOf(root)
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			walkErrs = append(walkErrs, fmt.Errorf("walk error at %s: %w", path, err))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if path != root && excluded(path, opts.Excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if opts.MaxDepth >= 0 && depthOf(path)-rootDepth > opts.MaxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		var size int64 = -1
		if d.Type()&os.ModeSymlink != 0 {
			info, e := os.Stat(path)
			if e != nil {
				walkErrs = append(walkErrs, e)
				return nil
			}
			size = info.Size()
			if info.IsDir() {
				if opts.FollowSymlink {
					sub := opts
					if sub.MaxDepth >= 0 {
						sub.MaxDepth -= depthOf(path) - rootDepth
					}
					more, e := walkImages(ctx, path, sub)
					if e != nil {
						walkErrs = append(walkErrs, e)
					}
					found = append(found, more...)
				}
				return nil
			}
		}
		if !IsImage(path) {
			return nil
		}
		if size < 0 {
			info, e := d.Info()
			if e != nil {
				walkErrs = append(walkErrs, e)
				return nil
			}
			size = info.Size()
		}
		found = append(found, Image{Path: path, Size: size})
		return nil
	}
	if err := filepath.WalkDir(root, walkFn); err != nil && !errors.Is(err, context.Canceled) {
		walkErrs = append(walkErrs, err)
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, combineErrors(walkErrs)
}

// Paths returns the file paths of imgs.
func Paths(imgs []Image) []string {
	out := make([]string, len(imgs))
	for i, img := range imgs {
		out[i] = img.Path
	}
	return out
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, `*?[`)
}

func depthOf(p string) int {
	clean := filepath.Clean(p)
	if clean == string(os.PathSeparator) {
		return 0
	}
	depth := 0
	for {
		parent := filepath.Dir(clean)
		if parent == clean {
			break
		}
		depth++
		clean = parent
	}
	return depth
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("multiple errors:")
	for _, e := range errs {
		if e == nil {
			continue
		}
		b.WriteString("\n - ")
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}

func excluded(p string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	base := filepath.Base(p)
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		if ok, _ := filepath.Match(pat, p); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
	}
	return false
}
