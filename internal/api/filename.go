package api

import (
	"strings"
	"unicode"
)

const maxBaseNameLen = 100

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Characters no common filesystem accepts in a name.
const unsafeChars = `<>:"/\|?*`

// SafeFileName makes a server-supplied name safe to create on any common
// filesystem while keeping it as close to the hint as possible.
//
//	"John Doe.pdf"        -> "John Doe.pdf"
//	"../../etc/passwd"    -> "passwd.pdf"
//	"Jane <CV>.pdf"       -> "Jane _CV_.pdf"
//	"con.pdf"             -> "con_.pdf"
//	"LPT1.tar.gz"         -> "LPT1_.tar.gz"
func SafeFileName(name string) string {
	if p := strings.LastIndexAny(name, `/\`); p != -1 {
		name = name[p+1:]
	}

	var sb strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			r = ' '
		case unicode.IsControl(r) || !unicode.IsPrint(r):
			continue
		case strings.ContainsRune(unsafeChars, r):
			r = '_'
		}
		sb.WriteRune(r)
	}
	// Windows drops trailing dots and spaces.
	name = strings.TrimLeft(strings.TrimRight(sb.String(), ". "), " ")
	if name == "" {
		return DefaultResumeName
	}

	stem, ext := name, ".pdf"
	switch p := strings.LastIndexByte(name, '.'); {
	case p == 0:
		stem, ext = "resume", name
	case p > 0:
		stem, ext = name[:p], name[p:]
	}
	if r := []rune(stem); len(r) > maxBaseNameLen {
		stem = strings.TrimRight(string(r[:maxBaseNameLen]), ". ")
	}
	if stem == "" {
		stem = "resume"
	}

	device := stem
	if p := strings.IndexByte(device, '.'); p != -1 {
		device = device[:p]
	}
	if reservedNames[strings.ToUpper(strings.TrimSpace(device))] {
		stem = device + "_" + stem[len(device):]
	}
	return stem + ext
}
