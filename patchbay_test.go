package patchbay_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/vsariola/patchbay"
)

func TestConnectionFromPins(t *testing.T) {
	out := patchbay.Pin{Node: 1, Channel: 1}
	in := patchbay.Pin{Node: 2, Channel: 0, IsInput: true}
	want := patchbay.Connection{Source: 1, SourceChannel: 1, Dest: 2, DestChannel: 0}
	for _, pins := range [][2]patchbay.Pin{{out, in}, {in, out}} {
		c, ok := patchbay.ConnectionFromPins(pins[0], pins[1])
		if !ok || c != want {
			t.Errorf("ConnectionFromPins(%v, %v) = %v, %v; want %v", pins[0], pins[1], c, ok, want)
		}
	}
	if _, ok := patchbay.ConnectionFromPins(out, out); ok {
		t.Errorf("two output pins should not make a connection")
	}
	if got := want.SourcePin(); got != out {
		t.Errorf("SourcePin() = %v, want %v", got, out)
	}
	if got := want.DestPin(); got != in {
		t.Errorf("DestPin() = %v, want %v", got, in)
	}
}

func TestChannelString(t *testing.T) {
	if s := patchbay.MIDIChannel.String(); s != "midi" {
		t.Errorf("expected midi, got %v", s)
	}
	c := patchbay.Connection{Source: 1, SourceChannel: patchbay.MIDIChannel, Dest: 2, DestChannel: patchbay.MIDIChannel}
	if !c.IsMIDI() {
		t.Errorf("expected %v to be a MIDI connection", c)
	}
	if s := c.String(); s != "1:midi -> 2:midi" {
		t.Errorf("unexpected string %q", s)
	}
}

func TestSnapshotIsSorted(t *testing.T) {
	conns := []patchbay.Connection{
		{Source: 2, Dest: 3},
		{Source: 1, SourceChannel: 1, Dest: 3, DestChannel: 1},
		{Source: 1, Dest: 3},
	}
	s := patchbay.NewSnapshot(7, []patchbay.SnapshotNode{{ID: 3}, {ID: 1}, {ID: 2}}, conns)
	if !slices.IsSortedFunc(s.Nodes, func(a, b patchbay.SnapshotNode) int { return int(a.ID) - int(b.ID) }) {
		t.Errorf("nodes not sorted: %v", s.Nodes)
	}
	if s.Connections[0] != (patchbay.Connection{Source: 1, Dest: 3}) {
		t.Errorf("connections not sorted: %v", s.Connections)
	}
	if conns[0] != (patchbay.Connection{Source: 2, Dest: 3}) {
		t.Errorf("NewSnapshot modified its argument")
	}
	n := 0
	for range s.Inputs(3) {
		n++
	}
	if n != 3 {
		t.Errorf("expected 3 inputs to node 3, got %d", n)
	}
	if s.Unit(4) != nil {
		t.Errorf("expected no unit for a missing node")
	}
	var nilSnapshot *patchbay.Snapshot
	if nilSnapshot.Unit(1) != nil {
		t.Errorf("expected no unit from a nil snapshot")
	}
}

const testDocument = `nodes:
  - id: 1
    unit: {kind: audio-input}
    x: 0.5
    y: 0.2
  - id: 5
    unit: {kind: gain, name: trim}
    x: 0.5
    y: 0.5
connections:
  - {source: 1, sourcechannel: 0, dest: 5, destchannel: 0}
`

func TestDocumentYAMLAndJSON(t *testing.T) {
	doc, err := patchbay.ReadDocument(strings.NewReader(testDocument))
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if len(doc.Nodes) != 2 || doc.Nodes[1].Descriptor.Name != "trim" || len(doc.Connections) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	var b bytes.Buffer
	if err := doc.Write(&b); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	again, err := patchbay.ReadDocument(&b)
	if err != nil {
		t.Fatalf("ReadDocument failed on written document: %v", err)
	}
	if len(again.Nodes) != 2 || again.Connections[0] != doc.Connections[0] {
		t.Errorf("round trip changed the document: %+v", again)
	}
	jsonDoc := `{"nodes":[{"id":3,"unit":{"kind":"mixer"},"x":0.1,"y":0.9}]}`
	doc, err = patchbay.ReadDocument(strings.NewReader(jsonDoc))
	if err != nil {
		t.Fatalf("ReadDocument failed on json: %v", err)
	}
	if doc.Nodes[0].ID != 3 || doc.Nodes[0].Descriptor.Kind != "mixer" {
		t.Errorf("unexpected document %+v", doc)
	}
}

func TestDocumentTOML(t *testing.T) {
	doc, err := patchbay.ReadDocument(strings.NewReader(testDocument))
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	var b bytes.Buffer
	if err := doc.WriteAs(&b, patchbay.TOML); err != nil {
		t.Fatalf("WriteAs failed: %v", err)
	}
	if !strings.Contains(b.String(), "[[connections]]") {
		t.Errorf("expected an array of connection tables, got\n%s", b.String())
	}
	again, err := patchbay.ReadDocumentAs(&b, patchbay.TOML)
	if err != nil {
		t.Fatalf("ReadDocumentAs failed: %v", err)
	}
	if len(again.Nodes) != 2 || again.Nodes[1].Descriptor.Name != "trim" || again.Connections[0] != doc.Connections[0] {
		t.Errorf("round trip changed the document: %+v", again)
	}
	if _, err := patchbay.ReadDocumentAs(strings.NewReader("[[nodes]]\nid = 0\n"), patchbay.TOML); err == nil {
		t.Errorf("expected a node with id 0 to be rejected")
	}
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]patchbay.DocumentFormat{
		"a.yml": patchbay.YAML, "b.YAML": patchbay.YAML, "c.json": patchbay.JSON, "d.toml": patchbay.TOML, "noext": patchbay.YAML,
	} {
		if got := patchbay.FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestDocumentValidate(t *testing.T) {
	for _, src := range []string{
		"nodes: [{id: 0, unit: {kind: gain}}]",
		"nodes: [{id: 1, unit: {kind: gain}}, {id: 1, unit: {kind: mixer}}]",
		"nodes: [",
	} {
		if _, err := patchbay.ReadDocument(strings.NewReader(src)); err == nil {
			t.Errorf("expected %q to be rejected", src)
		}
	}
}

func TestWav(t *testing.T) {
	buf := patchbay.AudioBuffer{{0.5, -0.5}, {2, -2}}
	for _, pcm16 := range []bool{false, true} {
		b, err := buf.Wav(pcm16, 48000)
		if err != nil {
			t.Fatalf("Wav failed: %v", err)
		}
		if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
			t.Fatalf("invalid header")
		}
		if size := binary.LittleEndian.Uint32(b[4:8]); int(size) != len(b)-8 {
			t.Errorf("RIFF chunk size %d, want %d", size, len(b)-8)
		}
		if rate := binary.LittleEndian.Uint32(b[24:28]); rate != 48000 {
			t.Errorf("sample rate %d, want 48000", rate)
		}
		raw, err := buf.Raw(pcm16)
		if err != nil {
			t.Fatalf("Raw failed: %v", err)
		}
		if !bytes.HasSuffix(b, raw) {
			t.Errorf("the wav file should end with the raw samples")
		}
		if pcm16 {
			if len(raw) != 8 {
				t.Fatalf("expected 8 bytes of 16-bit samples, got %d", len(raw))
			}
			if v := int16(binary.LittleEndian.Uint16(raw[4:])); v != math.MaxInt16 {
				t.Errorf("expected clipping to %d, got %d", math.MaxInt16, v)
			}
		} else if v := math.Float32frombits(binary.LittleEndian.Uint32(raw[4:])); v != -0.5 {
			t.Errorf("expected -0.5, got %v", v)
		}
	}
}
