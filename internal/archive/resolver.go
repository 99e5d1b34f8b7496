package archive

import (
	"fmt"
	"math"
	"strings"

	"github.com/telassist/callarchive/internal/webhooks/zoom"
	"github.com/telassist/callarchive/internal/zoomphone"
)

// Decision is where one recording goes on the share.
type Decision struct {
	Directory string
	Filename  string
}

// stampLayout renders the call time the way the archive has always named
// files: short weekday, day, short month, year, 12-hour clock.
const stampLayout = "Mon, 2 Jan 2006, 3:04 pm"

// Resolve maps one recording to its destination directory and filename.
// The second return is false when no rule matches and the recording is
// skipped. Rules, in order: accepted-by extension, outgoing-by extension,
// owning extension; each requires a directory entry for that extension.
func Resolve(rec zoom.Recording, meta zoomphone.Metadata, dir map[string]string) (Decision, bool) {
	caller := callerDisplayName(rec, meta, dir)
	callee := calleeDisplayName(rec, meta, dir)

	stamp := strings.Replace(meta.DateTime.Format(stampLayout), ":", "_", 1)
	tail := fmt.Sprintf("%s %s (%d units)", stamp, FormatDuration(rec.Duration), Units(rec.Duration))

	switch {
	case rec.AcceptedBy != nil:
		directory := Sanitize(dir[rec.AcceptedBy.ExtensionNumber])
		if directory == "" {
			return Decision{}, false
		}
		return Decision{
			Directory: directory,
			Filename:  Sanitize(caller + " to " + directory + " - " + tail + ".mp3"),
		}, true
	case rec.OutgoingBy != nil:
		directory := Sanitize(dir[rec.OutgoingBy.ExtensionNumber])
		if directory == "" {
			return Decision{}, false
		}
		return Decision{
			Directory: directory,
			Filename:  Sanitize(caller + " to " + callee + " - " + tail + ".mp3"),
		}, true
	case dir[rec.Owner.ExtensionNumber] != "":
		directory := Sanitize(dir[rec.Owner.ExtensionNumber])
		return Decision{
			Directory: directory,
			Filename:  Sanitize(caller + " to " + callee + " - " + tail + ".mp3"),
		}, true
	}
	return Decision{}, false
}

// callerDisplayName prefers initials for calls the owner placed themselves,
// then the transferring extension's initials for transferred outbound calls,
// and falls back to the provider's raw caller name (external callers).
func callerDisplayName(rec zoom.Recording, meta zoomphone.Metadata, dir map[string]string) string {
	switch {
	case meta.CallerName == rec.Owner.Name && rec.OutgoingBy == nil:
		return dir[rec.Owner.ExtensionNumber]
	case rec.OutgoingBy != nil:
		return dir[rec.OutgoingBy.ExtensionNumber]
	}
	return meta.CallerName
}

func calleeDisplayName(rec zoom.Recording, meta zoomphone.Metadata, dir map[string]string) string {
	if meta.CalleeName == rec.Owner.Name {
		return dir[rec.Owner.ExtensionNumber]
	}
	return meta.CalleeName
}

// FormatDuration renders seconds as "1h 1m 1s": hours only when non-zero,
// minutes once hours were emitted or non-zero, seconds always. Never empty.
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds - hours*3600) / 60
	secs := seconds - hours*3600 - minutes*60

	var b strings.Builder
	if hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if minutes > 0 || b.Len() > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	fmt.Fprintf(&b, "%ds", secs)
	return b.String()
}

// Units is the billing-increment approximation: duration over 360 seconds,
// rounded to the nearest whole unit.
func Units(seconds int) int {
	return int(math.Round(float64(seconds) / 360))
}

const illegalNameRunes = `/\?<>:*|"`

// Sanitize strips characters that are illegal in SMB/Windows path components,
// plus control characters.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(illegalNameRunes, r) {
			return -1
		}
		return r
	}, name)
}
