package terrain

import "strings"

// Flag is the per-texel attribute bitset.
type Flag uint8

const (
	FlagSafeZone  Flag = 0x01
	FlagCharacter Flag = 0x02
	FlagNoMove    Flag = 0x04
	FlagNoGround  Flag = 0x08
	FlagWater     Flag = 0x10
	FlagAction    Flag = 0x20
	FlagHeight    Flag = 0x40 // special height override
	FlagCameraUp  Flag = 0x80
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{FlagSafeZone, "safezone"},
	{FlagCharacter, "character"},
	{FlagNoMove, "nomove"},
	{FlagNoGround, "noground"},
	{FlagWater, "water"},
	{FlagAction, "action"},
	{FlagHeight, "height"},
	{FlagCameraUp, "cameraup"},
}

// Has reports whether all bits of other are set.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
