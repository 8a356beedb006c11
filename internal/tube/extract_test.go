package tube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []Segment
		want []Segment
	}{
		{
			name: "duplicate pair",
			in:   []Segment{{"0:00", "Hi"}, {"0:00", "Hi"}, {"0:05", "Bye"}},
			want: []Segment{{"0:00", "Hi"}, {"0:05", "Bye"}},
		},
		{
			name: "same text different timestamp",
			in:   []Segment{{"0:00", "Hi"}, {"0:07", "Hi"}},
			want: []Segment{{"0:00", "Hi"}, {"0:07", "Hi"}},
		},
		{
			name: "missing fields",
			in:   []Segment{{"", "no time"}, {"0:01", ""}, {"0:02", "kept"}},
			want: []Segment{{"0:02", "kept"}},
		},
		{
			name: "empty",
			in:   nil,
			want: []Segment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dedupe(tt.in))
		})
	}
}

func TestParseSegments(t *testing.T) {
	panel := panelHTML([2]string{"0:00", "Hello   there\n gophers"}, [2]string{"0:03", "second"})
	broken := `<ytd-transcript-renderer>
		<ytd-transcript-segment-renderer><div class="segment-timestamp">0:09</div></ytd-transcript-segment-renderer>
	</ytd-transcript-renderer>`

	got, err := ParseSegments([]string{panel, panel, broken})
	require.NoError(t, err)

	assert.Equal(t, []Segment{
		{"0:00", "Hello there gophers"},
		{"0:03", "second"},
	}, got)
}

func TestParseSegments_NoPanels(t *testing.T) {
	got, err := ParseSegments(nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
