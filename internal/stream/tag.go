package stream

import "unicode"

// scanTag attempts to match a `<think>`/`</think>` delimiter at the start
// of buf, tolerant of whitespace around the slash and the word itself.
// Grammar: '<' WS* '/'? WS* "think" WS* '>' (case-insensitive).
//
// Returns matched=true and consumed>0 when a full delimiter was recognized;
// needMore=true when buf is a valid-so-far prefix of the grammar but ended
// before a '>' was seen (and we haven't exceeded the bounded lookahead);
// otherwise matched=false and the caller should treat buf[0] ('<') as a
// literal rune.
func scanTag(buf []rune) (matched bool, consumed int, isClose bool, needMore bool) {
	if len(buf) == 0 || buf[0] != '<' {
		return false, 0, false, false
	}

	i := 1

	// atEnd reports whether we ran out of buffered input, and whether we
	// should instead give up because the lookahead bound was exceeded.
	atEnd := func() (wait bool) {
		if i < len(buf) {
			return false
		}
		return i < maxTagScan
	}

	skipWS := func() bool {
		for i < len(buf) && i < maxTagScan && unicode.IsSpace(buf[i]) {
			i++
		}
		return i < maxTagScan
	}

	if i >= maxTagScan {
		return false, 0, false, false
	}
	if !skipWS() {
		return false, 0, false, false
	}
	if atEnd() {
		return false, 0, false, true
	}
	if i >= len(buf) {
		return false, 0, false, false
	}

	if buf[i] == '/' {
		isClose = true
		i++
		if i >= maxTagScan {
			return false, 0, false, false
		}
		if !skipWS() {
			return false, 0, false, false
		}
		if atEnd() {
			return false, 0, false, true
		}
	}

	word := []rune("think")
	for _, w := range word {
		if i >= maxTagScan {
			return false, 0, false, false
		}
		if i >= len(buf) {
			return false, 0, false, true
		}
		if unicode.ToLower(buf[i]) != w {
			return false, 0, false, false
		}
		i++
	}

	if i >= maxTagScan {
		return false, 0, false, false
	}
	if !skipWS() {
		return false, 0, false, false
	}
	if atEnd() {
		return false, 0, false, true
	}
	if i >= len(buf) {
		return false, 0, false, false
	}
	if buf[i] != '>' {
		return false, 0, false, false
	}
	i++
	return true, i, isClose, false
}
