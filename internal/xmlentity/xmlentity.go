// Copyright 2026 The Update Engine Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xmlentity escapes and unescapes text and attribute values for the
// conservative XML subset the Omaha request/response wire format uses. It
// does not attempt to support the full XML entity grammar: only the five
// predefined named entities and numeric character references.
package xmlentity

import (
	"fmt"
	"strconv"
	"strings"
)

// Encode escapes s for use as XML text or attribute content. Every '<', '>'
// and '&' is replaced by its named entity; every other code point outside
// printable 7-bit ASCII is replaced by a numeric character reference. No
// other character is altered.
func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			if r >= 0x20 && r < 0x7f {
				b.WriteRune(r)
			} else {
				fmt.Fprintf(&b, "&#x%X;", r)
			}
		}
	}
	return b.String()
}

// Decode is the inverse of Encode, additionally accepting 'apos' and 'quot'
// and decimal numeric references. An entity this package does not
// recognize, or an '&' with no closing ';', is returned as an error rather
// than a panic.
func Decode(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		amp := strings.IndexByte(s[i:], '&')
		if amp == -1 {
			b.WriteString(s[i:])
			break
		}
		b.WriteString(s[i : i+amp])
		i += amp

		semi := strings.IndexByte(s[i:], ';')
		if semi == -1 {
			return "", fmt.Errorf("xmlentity: unterminated entity at byte %d", i)
		}
		ent := s[i+1 : i+semi]
		r, err := decodeEntity(ent)
		if err != nil {
			return "", err
		}
		b.WriteRune(r)
		i += semi + 1
	}
	return b.String(), nil
}

func decodeEntity(ent string) (rune, error) {
	switch ent {
	case "lt":
		return '<', nil
	case "gt":
		return '>', nil
	case "amp":
		return '&', nil
	case "apos":
		return '\'', nil
	case "quot":
		return '"', nil
	}
	if strings.HasPrefix(ent, "#x") || strings.HasPrefix(ent, "#X") {
		v, err := strconv.ParseInt(ent[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("xmlentity: invalid numeric reference %q: %w", ent, err)
		}
		return rune(v), nil
	}
	if strings.HasPrefix(ent, "#") {
		v, err := strconv.ParseInt(ent[1:], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("xmlentity: invalid numeric reference %q: %w", ent, err)
		}
		return rune(v), nil
	}
	return 0, fmt.Errorf("xmlentity: unknown entity %q", ent)
}
