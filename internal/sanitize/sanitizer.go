// Package sanitize strips site-attribution watermarks and invisible
// characters from scraped free text. Documents are nested JSON-like
// structures (map[string]any / []any) mutated in place.
package sanitize

import (
	"strings"
	"unicode"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const siteBrandName = "BOSS直聘"

// edgeZone is the head/tail span, in runes, inside which boilerplate
// header/footer watermarks are eligible for deletion.
const edgeZone = 25

// Keyword order matters: scanning prefers the earlier entry when several
// keywords match at the same position.
var keywords = []string{
	"来自BOSS直聘",
	"来自boss直聘",
	"来自Boss直聘",
	"BOSS直聘",
	"boss直聘",
	"Boss直聘",
	"kanzhun",
	"KANZHUN",
	"直聘",
	"BOSS",
	"boss",
}

var invisibleTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0000, Hi: 0x0000, Stride: 1},
		{Lo: 0x200B, Hi: 0x200F, Stride: 1},
		{Lo: 0xFEFF, Hi: 0xFEFF, Stride: 1},
	},
}

// Sanitizer holds the keyword tables. Construct once at startup and pass
// by reference to every component that cleans scraped payloads.
type Sanitizer struct {
	targetKeys     mapset.Set[string]
	quoteChars     mapset.Set[rune]
	stripInvisible transform.Transformer
}

func New() *Sanitizer {
	return &Sanitizer{
		targetKeys: mapset.NewSet(
			"postDescription", "introduce", "skills", "showSkills",
			"welfareList", "labels", "jobLabels", "jobName", "brandName",
			"bossName", "address", "locationName", "title",
		),
		quoteChars:     mapset.NewSet('"', '\'', '“', '”', '‘', '’'),
		stripInvisible: runes.Remove(runes.In(invisibleTable)),
	}
}

// Clean walks the document and rewrites string values. The whole document
// is left untouched when it is a self-referential posting (the site's own
// brand name appears as a brandName anywhere inside it).
func (s *Sanitizer) Clean(doc any) {
	if shouldSkip(doc) {
		return
	}
	s.walk(doc)
}

func (s *Sanitizer) walk(doc any) {
	switch d := doc.(type) {
	case map[string]any:
		for k, v := range d {
			switch val := v.(type) {
			case string:
				if s.targetKeys.Contains(k) {
					d[k] = s.CleanText(val)
				}
			case map[string]any, []any:
				s.walk(val)
			}
		}
	case []any:
		for i, v := range d {
			switch val := v.(type) {
			case string:
				d[i] = s.CleanText(val)
			case map[string]any, []any:
				s.walk(val)
			}
		}
	}
}

func shouldSkip(doc any) bool {
	switch d := doc.(type) {
	case map[string]any:
		if name, ok := d["brandName"].(string); ok && name == siteBrandName {
			return true
		}
		for _, v := range d {
			if shouldSkip(v) {
				return true
			}
		}
	case []any:
		for _, v := range d {
			if shouldSkip(v) {
				return true
			}
		}
	}
	return false
}

type match struct {
	start, end int // rune offsets
	word       string
}

// CleanText sanitizes a single string. Bare URLs pass through untouched;
// a cleaning that would leave fewer than 2 visible characters is discarded.
func (s *Sanitizer) CleanText(text string) string {
	if text == "" {
		return text
	}
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "http") || strings.HasPrefix(trimmed, "//") {
		return text
	}

	stripped, _, err := transform.String(s.stripInvisible, text)
	if err == nil {
		text = stripped
	}
	original := text
	r := []rune(text)
	textLen := len(r)

	matches := scan(r)
	if len(matches) == 0 {
		return text
	}

	active := claimLongest(matches)

	// Right-to-left so earlier deletions don't invalidate later offsets.
	for i, j := 0, len(active)-1; i < j; i, j = i+1, j-1 {
		active[i], active[j] = active[j], active[i]
	}

	temp := r
	for _, m := range active {
		var left, right rune
		if m.start > 0 {
			left = temp[m.start-1]
		}
		if m.end < len(temp) {
			right = temp[m.end]
		}

		del := false
		switch {
		case isASCIIAlnum(left) || isASCIIAlnum(right) ||
			s.quoteChars.Contains(left) || s.quoteChars.Contains(right):
			// A legitimate compound word or quoted mention.
		case strings.Contains(m.word, "来自"):
			del = true
		case m.start < edgeZone || m.end > textLen-edgeZone:
			if strings.Contains(m.word, "直聘") {
				del = true
			} else if isChinese(left) || isChinese(right) {
				del = true
			}
		}

		if del {
			temp = append(temp[:m.start:m.start], temp[m.end:]...)
		}
	}

	cleaned := string(temp)
	if len(strings.TrimSpace(cleaned)) < 2 && len(strings.TrimSpace(original)) >= 2 {
		return original
	}
	return cleaned
}

// scan finds non-overlapping keyword occurrences left to right, trying the
// keyword list in order at each position.
func scan(r []rune) []match {
	var found []match
	for i := 0; i < len(r); {
		matched := false
		for _, kw := range keywords {
			k := []rune(kw)
			if i+len(k) <= len(r) && string(r[i:i+len(k)]) == kw {
				found = append(found, match{start: i, end: i + len(k), word: kw})
				i += len(k)
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return found
}

// claimLongest sorts candidates by length descending and greedily claims
// non-overlapping rune ranges, then restores start order.
func claimLongest(matches []match) []match {
	byLen := make([]match, len(matches))
	copy(byLen, matches)
	for i := 1; i < len(byLen); i++ {
		for j := i; j > 0 && (byLen[j].end-byLen[j].start) > (byLen[j-1].end-byLen[j-1].start); j-- {
			byLen[j], byLen[j-1] = byLen[j-1], byLen[j]
		}
	}

	occupied := mapset.NewSet[int]()
	var active []match
	for _, m := range byLen {
		overlap := false
		for i := m.start; i < m.end; i++ {
			if occupied.Contains(i) {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}
		active = append(active, m)
		for i := m.start; i < m.end; i++ {
			occupied.Add(i)
		}
	}

	for i := 1; i < len(active); i++ {
		for j := i; j > 0 && active[j].start < active[j-1].start; j-- {
			active[j], active[j-1] = active[j-1], active[j]
		}
	}
	return active
}

func isASCIIAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isChinese(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FA5
}
