// Package search finds the transcript segments matching a free text query.
package search

import (
	"sort"
	"strconv"
	"strings"

	"github.com/laytan/tubescript/internal/stem"
	"github.com/laytan/tubescript/internal/tube"
)

// Searchable flattens segments into one stemmed string of the form
// "~index~text ~index~text ", the format Segments scans.
func Searchable(segments []tube.Segment) string {
	b := strings.Builder{}
	for i, seg := range segments {
		b.WriteString("~")
		b.WriteString(strconv.Itoa(i))
		b.WriteString("~")
		b.WriteString(stem.StemLine(strings.ReplaceAll(seg.Text, "~", " ")))
		b.WriteString(" ")
	}

	return b.String()
}

// Segments returns the indexes of the segments matching query, in order.
//
// The query and the segments are stemmed using the stem package, so different "styles" of the same word
// will match.
//
// If the match is on the boundary of two segments (so part is in segment 1 and the other part in 2),
// the second segment's index is returned.
func Segments(segments []tube.Segment, query string) []int {
	words := stem.StemLineWords(query)
	if len(words) == 0 {
		return nil
	}

	searchable := Searchable(segments)

	// Cheap rejection before the exact scan, every word has to be in there somewhere.
	for _, w := range words {
		if !strings.Contains(searchable, w) {
			return nil
		}
	}

	return scan(searchable, strings.Join(strings.Fields(stem.StemLine(query)), " "))
}

// scan strips the "~index~" markers from searchable, keeping where every
// segment starts in the remaining text, and reports the segment each match
// of query ends in. Matches may overlap.
func scan(searchable string, query string) (res []int) {
	text := strings.Builder{}
	text.Grow(len(searchable))

	var starts []int // Offset in text where ids[i] starts.
	var ids []int

	inMeta := false
	idStart := 0
	for i, ch := range searchable {
		if ch != '~' {
			if !inMeta {
				text.WriteRune(ch)
			}
			continue
		}

		if inMeta {
			id, err := strconv.Atoi(searchable[idStart:i])
			if err == nil {
				starts = append(starts, text.Len())
				ids = append(ids, id)
			}
		} else {
			idStart = i + 1
		}
		inMeta = !inMeta
	}

	plain := text.String()
	for from := 0; from < len(plain); {
		at := strings.Index(plain[from:], query)
		if at < 0 {
			break
		}
		at += from

		last := at + len(query) - 1
		seg := sort.Search(len(starts), func(k int) bool { return starts[k] > last }) - 1
		if seg >= 0 && (len(res) == 0 || res[len(res)-1] != ids[seg]) {
			res = append(res, ids[seg])
		}

		from = at + 1
	}

	return res
}
