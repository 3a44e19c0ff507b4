package synthetic

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
)

// Opener opens *.testsrc.yaml descriptors.
type Opener struct {
	// Fs is the filesystem descriptors are read from (default: OS filesystem)
	Fs afero.Fs
}

// NewOpener creates an opener backed by fsys (nil = OS filesystem)
func NewOpener(fsys afero.Fs) *Opener {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Opener{Fs: fsys}
}

// Open implements mediasource.Opener.
func (o *Opener) Open(path string, withAudio bool) (mediasource.Source, error) {
	fsys := o.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("synthetic: open %s: %w", path, mediasource.ErrNotFound)
		}
		return nil, fmt.Errorf("synthetic: open %s: %w: %v", path, mediasource.ErrDecode, err)
	}

	desc, err := ParseDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("synthetic: open %s: %w: %v", path, mediasource.ErrDecode, err)
	}
	if !withAudio {
		desc.Audio = nil
	}

	src, err := New(desc)
	if err != nil {
		return nil, err
	}
	src.path = path
	return src, nil
}
