// Package biome classifies climate fields into discrete biome codes.
package biome

import "fmt"

// Code is a biome identifier. Values are stable: they are persisted in the
// biomes artifact.
type Code int

const (
	Ocean Code = iota
	Bare
	TropicalRainforest
	TropicalSeasonalForest
	Savannah
	Desert
	TemperateRainforest
	TemperateForest
	Woodland
	Grassland
	Taiga
	Tundra
	Snow
)

// NumCodes is the number of defined codes.
const NumCodes = int(Snow) + 1

var codeNames = [NumCodes]string{
	Ocean:                  "ocean",
	Bare:                   "bare",
	TropicalRainforest:     "tropical-rainforest",
	TropicalSeasonalForest: "tropical-seasonal-forest",
	Savannah:               "savannah",
	Desert:                 "desert",
	TemperateRainforest:    "temperate-rainforest",
	TemperateForest:        "temperate-forest",
	Woodland:               "woodland",
	Grassland:              "grassland",
	Taiga:                  "taiga",
	Tundra:                 "tundra",
	Snow:                   "snow",
}

func (c Code) String() string {
	if c < 0 || int(c) >= NumCodes {
		return fmt.Sprintf("biome(%d)", int(c))
	}
	return codeNames[c]
}

// Valid reports whether c is a defined code.
func (c Code) Valid() bool {
	return c >= 0 && int(c) < NumCodes
}

// ParseCode converts a name produced by String back to a Code.
func ParseCode(name string) (Code, error) {
	for i, n := range codeNames {
		if n == name {
			return Code(i), nil
		}
	}
	return Ocean, fmt.Errorf("unknown biome %q", name)
}

// All returns every code in numeric order.
func All() []Code {
	codes := make([]Code, NumCodes)
	for i := range codes {
		codes[i] = Code(i)
	}
	return codes
}
