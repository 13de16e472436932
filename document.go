package patchbay

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type (
	// Document is the persisted form of a routing graph: the descriptors and
	// normalized positions of the nodes, and the connections between them.
	// Node ids are kept so the connections can refer to them.
	Document struct {
		Nodes       []DocumentNode `yaml:"nodes" json:"nodes" toml:"nodes"`
		Connections []Connection   `yaml:"connections,omitempty" json:"connections,omitempty" toml:"connections,omitempty"`
	}

	DocumentNode struct {
		ID         NodeID     `yaml:"id" json:"id" toml:"id"`
		Descriptor Descriptor `yaml:"unit" json:"unit" toml:"unit"`
		X          float64    `yaml:"x" json:"x" toml:"x"`
		Y          float64    `yaml:"y" json:"y" toml:"y"`
	}

	// DocumentFormat is the file format of a document.
	DocumentFormat int
)

const (
	YAML DocumentFormat = iota
	JSON
	TOML
)

// FormatOf picks the format of a document file from its extension; anything
// unknown is YAML.
func FormatOf(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".toml":
		return TOML
	}
	return YAML
}

func (f DocumentFormat) String() string {
	switch f {
	case JSON:
		return "json"
	case TOML:
		return "toml"
	}
	return "yaml"
}

// ReadDocument reads a document in YAML or JSON format.
func ReadDocument(r io.Reader) (Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("could not read document: %w", err)
	}
	var doc Document
	if errJSON := json.Unmarshal(b, &doc); errJSON != nil {
		doc = Document{}
		if errYaml := yaml.Unmarshal(b, &doc); errYaml != nil {
			return Document{}, fmt.Errorf("the document could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ReadDocumentAs reads a document in the given format. JSON and YAML are
// told apart by content, so only TOML needs its own decoder.
func ReadDocumentAs(r io.Reader, format DocumentFormat) (Document, error) {
	if format != TOML {
		return ReadDocument(r)
	}
	var doc Document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("the document could not be parsed as .toml: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// WriteAs writes the document in the given format.
func (d Document) WriteAs(w io.Writer, format DocumentFormat) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("could not write document: %w", err)
		}
		return nil
	case TOML:
		if err := toml.NewEncoder(w).Encode(d); err != nil {
			return fmt.Errorf("could not write document: %w", err)
		}
		return nil
	}
	return d.Write(w)
}

// Write writes the document in YAML format.
func (d Document) Write(w io.Writer) error {
	b, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("could not marshal document: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("could not write document: %w", err)
	}
	return nil
}

// Validate checks that node ids are non-zero and unique. Connection legality
// depends on the instantiated units, so it is checked when loading the
// document into a graph.
func (d Document) Validate() error {
	seen := make(map[NodeID]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == 0 {
			return fmt.Errorf("node with descriptor %q has id 0", n.Descriptor.Kind)
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %d", n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}
