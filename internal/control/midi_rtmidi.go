//go:build rtmidi

package control

// The rtmidi driver needs cgo and the system rtmidi library, so it is only
// linked into builds tagged rtmidi.
import _ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
