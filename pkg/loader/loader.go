package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// Decode reads a dataset from r. Gzip input is detected by its magic bytes.
func Decode(r io.Reader) (*Dataset, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		return decodeJSON(zr)
	}
	return decodeJSON(br)
}

func decodeJSON(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}
	fillIDs(&ds)
	return &ds, nil
}

// Load reads a dataset file from disk
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// LoadFS reads a dataset file from fsys
func LoadFS(fsys fs.FS, path string) (*Dataset, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ListDatasets returns the .json and .json.gz files below root
func ListDatasets(fsys fs.FS, root string) ([]string, error) {
	var paths []string
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".json") || strings.HasSuffix(path, ".json.gz") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// fillIDs gives every question an id; some hand-made datasets leave it out
func fillIDs(ds *Dataset) {
	generated := 0
	for t := range ds.Data {
		for p := range ds.Data[t].Paragraphs {
			qas := ds.Data[t].Paragraphs[p].QAs
			for q := range qas {
				if qas[q].ID == "" {
					qas[q].ID = uuid.NewString()
					generated++
				}
			}
		}
	}
	if generated > 0 {
		log.Debug().Int("count", generated).Msg("generated ids for questions without one")
	}
}

// LoadAll reads every dataset below root and concatenates their topics in path order
func LoadAll(fsys fs.FS, root string) (*Dataset, error) {
	paths, err := ListDatasets(fsys, root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no dataset files under %s", root)
	}

	merged := &Dataset{}
	for _, path := range paths {
		ds, err := LoadFS(fsys, path)
		if err != nil {
			return nil, err
		}
		if merged.Version == "" {
			merged.Version = ds.Version
		}
		merged.Data = append(merged.Data, ds.Data...)
	}
	return merged, nil
}
