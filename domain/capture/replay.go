package capture

import (
	"image"
	"image/draw"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	errs "github.com/soocke/sputnik-relay/platform/errors"
)

var replayExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true}

// Replay serves still images from a directory in lexical order, resized to a
// fixed resolution. When the directory is exhausted Read fails with io.EOF
// unless looping is enabled.
type Replay struct {
	files  []string
	next   int
	loop   bool
	width  int
	height int
}

// NewReplay lists the images in dir. width and height fix the frame size;
// zero keeps each image's own size.
func NewReplay(dir string, width, height int, loop bool) (*Replay, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.Wrap(errs.KindCapture, "replay.open", "list "+dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !replayExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, errs.New(errs.KindCapture, "replay.open", "no images in "+dir)
	}
	sort.Strings(files)
	return &Replay{files: files, loop: loop, width: width, height: height}, nil
}

func (r *Replay) Read() (Frame, error) {
	if r.next >= len(r.files) {
		if !r.loop {
			return Frame{}, errs.Wrap(errs.KindCapture, "replay.read", "replay exhausted", io.EOF)
		}
		r.next = 0
	}
	path := r.files[r.next]
	r.next++
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return Frame{}, errs.Wrap(errs.KindCapture, "replay.read", "decode "+path, err)
	}
	if r.width > 0 && r.height > 0 {
		b := src.Bounds()
		if b.Dx() != r.width || b.Dy() != r.height {
			src = imaging.Resize(src, r.width, r.height, imaging.Linear)
		}
	}
	return Frame{Image: ToRGBA(src), CapturedAt: time.Now()}, nil
}

func (r *Replay) Close() error { return nil }

// ToRGBA copies img into a pooled, zero-origin RGBA buffer with opaque alpha.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := acquireFrame(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, image.Opaque, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Over)
	return dst
}
