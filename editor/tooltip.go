package editor

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/vsariola/patchbay"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var pinTooltip = template.Must(template.New("pin").Funcs(sprig.TxtFuncMap()).Parse(
	`{{if .MIDI}}MIDI {{title .Direction}}{{else if .Name}}{{trim .Name}}{{else}}{{title .Direction}} {{add1 .Index}}{{end}}`))

var titleCaser = cases.Title(language.English, cases.NoLower)

type pinTooltipData struct {
	MIDI      bool
	Direction string
	Name      string
	Index     int
}

// PinTooltip describes the pin: "MIDI Input" or "MIDI Output" for MIDI pins,
// the channel name when the unit names its channels, "Input 1" etc.
// otherwise.
func PinTooltip(unit patchbay.Unit, pin patchbay.Pin) string {
	data := pinTooltipData{MIDI: pin.IsMIDI(), Direction: "output", Index: int(pin.Channel)}
	if pin.IsInput {
		data.Direction = "input"
	}
	if namer, ok := unit.(patchbay.ChannelNamer); ok && !pin.IsMIDI() {
		if pin.IsInput {
			data.Name = namer.InputChannelName(int(pin.Channel))
		} else {
			data.Name = namer.OutputChannelName(int(pin.Channel))
		}
	}
	var b strings.Builder
	if err := pinTooltip.Execute(&b, data); err != nil {
		return pin.String()
	}
	return b.String()
}

// DisplayName title cases the name of a unit for display, keeping acronyms
// like "MIDI" intact.
func DisplayName(name string) string {
	return titleCaser.String(strings.TrimSpace(name))
}
