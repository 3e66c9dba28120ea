package core

// Region is the sole matching key between users.
type Region string

const (
	Africa       Region = "Africa"
	Asia         Region = "Asia"
	Europe       Region = "Europe"
	NorthAmerica Region = "NorthAmerica"
	SouthAmerica Region = "SouthAmerica"
	Oceania      Region = "Oceania"

	DefaultRegion = Europe
)

// Regions lists every region in display order.
var Regions = []Region{Africa, Asia, Europe, NorthAmerica, SouthAmerica, Oceania}

// Button tokens carried in callback data.
const (
	ActionFind      = "find"
	ActionNext      = "next"
	ActionStop      = "stop"
	ActionSetRegion = "setregion"
)

// localeRegions maps a locale hint, full tag or primary subtag, to a region.
var localeRegions = map[string]Region{
	"id": Asia, "ms": Asia, "zh": Asia, "ja": Asia,
	"ko": Asia, "hi": Asia, "th": Asia, "vi": Asia,
	"en": NorthAmerica, "en-US": NorthAmerica, "en-CA": NorthAmerica,
	"en-GB": Europe, "es-ES": Europe, "fr": Europe, "de": Europe, "ru": Europe,
	"it": Europe, "pl": Europe, "uk": Europe, "nl": Europe,
	"es": SouthAmerica, "pt": SouthAmerica, "pt-BR": SouthAmerica,
	"sw": Africa, "am": Africa, "ar-EG": Africa, "zu": Africa,
	"en-AU": Oceania, "en-NZ": Oceania, "mi": Oceania,
}
