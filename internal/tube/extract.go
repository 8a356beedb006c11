package tube

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseSegments reads the segments of every transcript panel instance, given
// as their outer HTML, and deduplicates them with Dedupe.
func ParseSegments(panels []string) ([]Segment, error) {
	var raw []Segment
	for i, panel := range panels {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(panel))
		if err != nil {
			return nil, fmt.Errorf("parsing transcript panel %d: %w", i, err)
		}

		doc.Find(segmentRenderer).Each(func(_ int, seg *goquery.Selection) {
			raw = append(raw, Segment{
				Timestamp: text(seg.Find(segmentTimestamp).First()),
				Text:      text(seg.Find(segmentText).First()),
			})
		})
	}

	return Dedupe(raw), nil
}

// Dedupe drops segments missing either field and keeps only the first
// occurrence of every (timestamp, text) pair, preserving order.
func Dedupe(raw []Segment) []Segment {
	seen := make(map[Segment]struct{}, len(raw))
	out := make([]Segment, 0, len(raw))
	for _, seg := range raw {
		if seg.Timestamp == "" || seg.Text == "" {
			continue
		}

		if _, ok := seen[seg]; ok {
			continue
		}

		seen[seg] = struct{}{}
		out = append(out, seg)
	}

	return out
}

// text approximates innerText: trimmed with whitespace runs collapsed.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
