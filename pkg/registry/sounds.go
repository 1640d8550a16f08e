package registry

// defaultSoundNames seeds Global with the common drum-machine
// abbreviations (bass drum, snare, hihat, and the like) so a bare
// mini-notation atom resolves to a proper sound pattern out of the box,
// without every host needing to call RegisterSound itself.
var defaultSoundNames = []string{
	"bd", "sn", "hh", "oh", "ch", "cp", "rim",
	"lt", "mt", "ht", "cr", "rd", "perc", "arpy", "bass",
}

func init() {
	for _, name := range defaultSoundNames {
		Global.RegisterSound(name)
	}
}
