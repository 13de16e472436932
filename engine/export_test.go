package engine

var (
	MIDIDroppedTotal    = midiDroppedTotal
	BlocksRenderedTotal = blocksRenderedTotal
)
