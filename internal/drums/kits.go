package drums

// Kits are named starting points for the timbre knobs. Selecting a kit
// loads its knob values into the settings tree; the user then bends them
// from there.
var Kits = map[string]Params{
	"analog": {Tune: 0.5, Decay: 0.5, Tone: 0.5},
	"punch":  {Tune: 0.65, Decay: 0.3, Tone: 0.7},
	"boom":   {Tune: 0.3, Decay: 0.8, Tone: 0.35},
	"tight":  {Tune: 0.55, Decay: 0.2, Tone: 0.6},
}

// KitNames lists the kits in panel order.
var KitNames = []string{"analog", "punch", "boom", "tight"}

// KitParams returns the knob defaults for a kit, falling back to "analog"
// for unknown names.
func KitParams(name string) Params {
	if p, ok := Kits[name]; ok {
		return p
	}
	return Kits["analog"]
}
