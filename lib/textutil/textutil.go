package textutil

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

var digitsRegex = regexp.MustCompile(`\d[\d,]*`)

// ParseCount reads the first number out of localized count text such as
// "1,234건" or "공감 12", the unit suffix and thousands separators are dropped.
func ParseCount(text string) (int, bool) {
	match := digitsRegex.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParseLabeledCount reads the number that follows `label` in text, so
// ParseLabeledCount("댓글 3", "댓글") is 3.
func ParseLabeledCount(text, label string) (int, bool) {
	idx := strings.Index(text, label)
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(text[idx+len(label):])
	if rest == "" || rest[0] < '0' || rest[0] > '9' {
		return 0, false
	}
	return ParseCount(rest)
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	}
	return c - 'A' + 10
}

// unescapeRuns replaces every run of consecutive %XX escapes in s with the
// result of decodeRun, malformed escapes are left as they are. ok is false if
// any run failed to decode.
func unescapeRuns(s string, decodeRun func([]byte) (string, bool)) (string, bool) {
	var out strings.Builder
	var run []byte
	ok := true

	flush := func() {
		if len(run) == 0 {
			return
		}
		decoded, valid := decodeRun(run)
		ok = ok && valid
		out.WriteString(decoded)
		run = run[:0]
	}

	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			run = append(run, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		flush()
		out.WriteByte(s[i])
	}
	flush()

	return out.String(), ok
}

func decodeUtf8(run []byte) (string, bool) {
	return string(run), utf8.Valid(run)
}

func decodeEucKr(run []byte) (string, bool) {
	decoded, err := korean.EUCKR.NewDecoder().Bytes(run)
	if err != nil {
		return strings.ToValidUTF8(string(run), "\uFFFD"), false
	}
	return string(decoded), true
}

// DecodePercent unescapes percent-encoded sequences. When the escaped bytes are
// not valid utf-8 they are decoded as EUC-KR instead, which older pages still emit.
// Malformed escapes are kept literally.
func DecodePercent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, ok := unescapeRuns(s, decodeUtf8)
	if ok {
		return decoded
	}
	decoded, _ = unescapeRuns(s, decodeEucKr)
	return decoded
}
