// Package content serves themed word packs.
//
// Packs are JSON files named <packId>.json holding a display name and a
// list of entries. Each entry carries a word, its meaning, and either a
// single image or a list of images of which one is picked per draw.
// When no directory is configured the packs embedded in the binary are used.
package content

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path"
	"strings"
)

//go:embed packs/*.json
var embeddedPacks embed.FS

var (
	ErrUnknownPack = errors.New("unknown-pack")
	ErrEmptyPack   = errors.New("empty-pack")
	ErrNoPacks     = errors.New("no-packs")
)

// Entry is one drawable word.
type Entry struct {
	Word    string
	Meaning string
	Image   string
}

type rawEntry struct {
	Word    string   `json:"word"`
	Meaning string   `json:"meaning"`
	Image   string   `json:"image"`
	Images  []string `json:"images"`
}

type packFile struct {
	Name    string     `json:"name"`
	Entries []rawEntry `json:"entries"`
}

type pack struct {
	name    string
	entries []rawEntry
}

type Library struct {
	packs       map[string]pack
	defaultPack string
}

// Load reads every pack of dir, or the embedded packs when dir is empty.
// defaultPack must name one of the loaded packs.
func Load(dir, defaultPack string) (*Library, error) {
	var fsys fs.FS
	var err error
	if dir == "" {
		fsys, err = fs.Sub(embeddedPacks, "packs")
		if err != nil {
			return nil, err
		}
	} else {
		fsys = os.DirFS(dir)
	}
	return LoadFS(fsys, defaultPack)
}

func LoadFS(fsys fs.FS, defaultPack string) (*Library, error) {
	files, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}

	lib := &Library{packs: make(map[string]pack, len(files)), defaultPack: defaultPack}
	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read pack %s: %w", file, err)
		}

		var pf packFile
		if err := json.Unmarshal(raw, &pf); err != nil {
			return nil, fmt.Errorf("decode pack %s: %w", file, err)
		}

		id := strings.TrimSuffix(path.Base(file), ".json")
		p := pack{name: strings.TrimSpace(pf.Name)}
		if p.name == "" {
			p.name = id
		}
		for _, e := range pf.Entries {
			if e, ok := clean(e); ok {
				p.entries = append(p.entries, e)
			}
		}
		lib.packs[id] = p
	}

	if len(lib.packs) == 0 {
		return nil, ErrNoPacks
	}
	if _, ok := lib.packs[defaultPack]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownPack, defaultPack)
	}
	return lib, nil
}

// clean trims an entry and drops it when word or meaning is blank.
func clean(e rawEntry) (rawEntry, bool) {
	e.Word = strings.TrimSpace(e.Word)
	e.Meaning = strings.TrimSpace(e.Meaning)
	if e.Word == "" || e.Meaning == "" {
		return e, false
	}

	e.Image = strings.TrimSpace(e.Image)
	images := e.Images[:0:0]
	for _, img := range e.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	e.Images = images
	return e, true
}

// Packs maps every pack id to its display name.
func (l *Library) Packs() map[string]string {
	out := make(map[string]string, len(l.packs))
	for id, p := range l.packs {
		out[id] = p.name
	}
	return out
}

func (l *Library) Has(packID string) bool {
	_, ok := l.packs[packID]
	return ok
}

func (l *Library) DefaultPack() string {
	return l.defaultPack
}

// RandomEntry draws one entry of the pack. A single image wins over the
// image list; otherwise one image of the list is picked at random.
func (l *Library) RandomEntry(packID string) (Entry, error) {
	p, ok := l.packs[packID]
	if !ok {
		return Entry{}, ErrUnknownPack
	}
	if len(p.entries) == 0 {
		return Entry{}, ErrEmptyPack
	}

	e := p.entries[rand.IntN(len(p.entries))]
	out := Entry{Word: e.Word, Meaning: e.Meaning, Image: e.Image}
	if out.Image == "" && len(e.Images) > 0 {
		out.Image = e.Images[rand.IntN(len(e.Images))]
	}
	return out, nil
}
