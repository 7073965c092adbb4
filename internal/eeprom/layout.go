// internal/eeprom/layout.go
package eeprom

import (
	"github.com/tamzrod/dboard-bringup/internal/fault"
)

// Layout describes where user data lives in the board EEPROM.
type Layout struct {
	Label     string // I2C controller the EEPROM hangs off
	Offset    int64
	MaxSize   int
	Alignment int
}

// Layouts maps the first board revision using a layout to that layout.
// Later revisions reuse the closest earlier entry.
var Layouts = map[int]Layout{
	2: {
		Label:     "e0004000.i2c",
		Offset:    1024,
		MaxSize:   32786 - 1024,
		Alignment: 1024,
	},
}

// LayoutFor walks back from rev to the closest revision with a layout.
func LayoutFor(rev int) (Layout, error) {
	for r := rev; r >= 0; r-- {
		if l, ok := Layouts[r]; ok {
			return l, nil
		}
	}
	return Layout{}, fault.New(fault.Hardware, "eeprom.LayoutFor", "no user EEPROM layout for revision %d", rev)
}
