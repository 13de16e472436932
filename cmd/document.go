package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vsariola/patchbay"
)

// ReadDocumentFile reads a document in the format its extension names. If the file does not exist and
// fallback is not nil, the fallback is returned instead, so that the editor
// can create new files.
func ReadDocumentFile(path string, fallback func() patchbay.Document) (doc patchbay.Document, exists bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && fallback != nil {
		return fallback(), false, nil
	}
	if err != nil {
		return patchbay.Document{}, false, fmt.Errorf("could not open %v: %w", path, err)
	}
	defer f.Close()
	doc, err = patchbay.ReadDocumentAs(f, patchbay.FormatOf(path))
	if err != nil {
		return patchbay.Document{}, true, fmt.Errorf("%v: %w", path, err)
	}
	return doc, true, nil
}

// WriteDocumentFile writes the document, in the format its extension names,
// through a temporary file so a failed save never leaves a truncated file
// behind.
func WriteDocumentFile(path string, doc patchbay.Document) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("could not save %v: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if err := doc.WriteAs(tmp, patchbay.FormatOf(path)); err != nil {
		tmp.Close()
		return fmt.Errorf("could not save %v: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not save %v: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not save %v: %w", path, err)
	}
	return nil
}
