package services

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// envelopeField is the key under which the generation endpoint returns the
// model text.
const envelopeField = "response"

// literalNoise removes backslash-n and backslash-t sequences that the model
// emits as literal text. They are dropped, not interpreted.
var literalNoise = strings.NewReplacer(`\n`, "", `\t`, "")

type ResponseNormalizer interface {
	Normalize(raw string) (map[string]any, error)
}

type responseNormalizer struct{}

func NewResponseNormalizer() ResponseNormalizer {
	return &responseNormalizer{}
}

// Normalize decodes raw model output into a JSON object. At most one
// envelope is unwrapped and at most two decode attempts are made: a direct
// decode, then one decode of the unescaped text.
func (n *responseNormalizer) Normalize(raw string) (map[string]any, error) {
	text, _ := unwrapEnvelope(raw)

	cleaned := literalNoise.Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return nil, newMalformedOutputError("empty model output", cleaned)
	}

	obj, err := decodeObject(cleaned)
	if err != nil {
		unescaped, uerr := unescapeOnce(cleaned)
		if uerr != nil {
			return nil, newMalformedOutputError(err.Error(), cleaned)
		}
		obj, err = decodeObject(strings.TrimSpace(unescaped))
		if err != nil {
			return nil, newMalformedOutputError(err.Error(), cleaned)
		}
	}

	if _, nested := envelopeText(obj); nested {
		return nil, newMalformedOutputError("nested response envelope", cleaned)
	}

	return obj, nil
}

// unwrapEnvelope returns the inner text of {"response": "<text>"}, or raw
// unchanged when raw is not such an envelope.
func unwrapEnvelope(raw string) (string, bool) {
	var outer map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &outer); err != nil {
		return raw, false
	}
	inner, ok := envelopeText(outer)
	if !ok {
		return raw, false
	}
	return inner, true
}

func envelopeText(obj map[string]any) (string, bool) {
	v, ok := obj[envelopeField]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

var errNotObject = errors.New("model output is not a JSON object")

func decodeObject(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}

// unescapeOnce undoes one level of string escaping. A JSON string literal is
// decoded as such; any other text goes through a byte-level escape pass.
func unescapeOnce(text string) (string, error) {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		var s string
		if err := json.Unmarshal([]byte(text), &s); err == nil {
			return s, nil
		}
	}
	return unescapeBytes(text)
}

// unescapeBytes interprets backslash escapes (\" \\ \/ \' \n \r \t \b \f
// \xHH \uXXXX including surrogate pairs). Unknown escapes are kept verbatim.
func unescapeBytes(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return "", errors.New("nothing to unescape")
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}

		next := s[i+1]
		switch next {
		case '"', '\\', '/', '\'':
			b.WriteByte(next)
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'b':
			b.WriteByte('\b')
			i++
		case 'f':
			b.WriteByte('\f')
			i++
		case 'x':
			if i+3 < len(s) {
				if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
					b.WriteRune(rune(v))
					i += 3
					continue
				}
			}
			b.WriteByte(c)
		case 'u':
			r, width, ok := decodeUnicodeEscape(s[i:])
			if !ok {
				b.WriteByte(c)
				continue
			}
			b.WriteRune(r)
			i += width - 1
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

// decodeUnicodeEscape reads \uXXXX (and a following low surrogate) from the
// start of s. width is the number of bytes consumed.
func decodeUnicodeEscape(s string) (rune, int, bool) {
	if len(s) < 6 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[2:6], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	r := rune(v)
	if !utf16.IsSurrogate(r) {
		return r, 6, true
	}
	if len(s) >= 12 && s[6] == '\\' && s[7] == 'u' {
		if lo, err := strconv.ParseUint(s[8:12], 16, 16); err == nil {
			if pair := utf16.DecodeRune(r, rune(lo)); pair != unicode.ReplacementChar {
				return pair, 12, true
			}
		}
	}
	return unicode.ReplacementChar, 6, true
}
