// Package attach implements the wire encoding that lets a binary attachment
// travel through a string-typed event property.
//
// The encoded form is
//
//	magic || len(name) as 8 decimal digits || name || level as 8 decimal digits || base64(data)
//
// Decoding is strict: a candidate that merely starts with the magic marker
// but has malformed digit fields or an invalid base64 payload is treated as
// ordinary log text, never an error.
package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// magic marks encoded attachments. Chosen to be vanishingly unlikely at the
// start of ordinary log text.
const magic = "#ziplog/attach/v1#"

const digitWidth = 8

// ErrNotEncodable reports that the name or payload was empty.
var ErrNotEncodable = errors.New("attach: name and data must be non-empty")

// Encode produces the wire form of an attachment request.
func Encode(name string, level Level, data []byte) (string, error) {
	if name == "" || len(data) == 0 {
		return "", ErrNotEncodable
	}
	if len(name) >= 1e8 {
		return "", ErrNotEncodable
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%08d%s%08d", magic, len(name), name, int(level))
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String(), nil
}

// Decode scans candidate strings for an encoded attachment and returns the
// first successful decode. ok is false when no candidate decodes.
func Decode(candidates ...string) (name string, level Level, data []byte, ok bool) {
	for _, c := range candidates {
		if n, l, d, ok := decodeOne(c); ok {
			return n, l, d, true
		}
	}
	return "", 0, nil, false
}

func decodeOne(s string) (string, Level, []byte, bool) {
	rest, found := strings.CutPrefix(s, magic)
	if !found || len(rest) < digitWidth {
		return "", 0, nil, false
	}

	nameLen, ok := parseDigits(rest[:digitWidth])
	if !ok || nameLen == 0 {
		return "", 0, nil, false
	}
	rest = rest[digitWidth:]
	if len(rest) < nameLen+digitWidth {
		return "", 0, nil, false
	}

	name := rest[:nameLen]
	lvl, ok := parseDigits(rest[nameLen : nameLen+digitWidth])
	if !ok || !Level(lvl).valid() {
		return "", 0, nil, false
	}

	data, err := base64.StdEncoding.DecodeString(rest[nameLen+digitWidth:])
	if err != nil || len(data) == 0 {
		return "", 0, nil, false
	}
	return name, Level(lvl), data, true
}

// parseDigits parses a fixed-width field of ASCII digits. Unlike
// strconv.Atoi it rejects signs and spaces.
func parseDigits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + int(ch-'0')
	}
	return n, true
}
