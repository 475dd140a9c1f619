package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectTimelineArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"planline"},
			want: []string{"planline"},
		},
		{
			name: "timeline id first token",
			in:   []string{"planline", "tl-abc123"},
			want: []string{"planline", "tui", "tl-abc123"},
		},
		{
			name: "timeline id after value flag",
			in:   []string{"planline", "--server", "http://127.0.0.1:3001", "tl-abc123"},
			want: []string{"planline", "--server", "http://127.0.0.1:3001", "tui", "tl-abc123"},
		},
		{
			name: "timeline id after equals flag",
			in:   []string{"planline", "--dir=./tmp", "tl-abc123"},
			want: []string{"planline", "--dir=./tmp", "tui", "tl-abc123"},
		},
		{
			name: "timeline id after bool flag",
			in:   []string{"planline", "--pretty", "tl-abc123"},
			want: []string{"planline", "--pretty", "tui", "tl-abc123"},
		},
		{
			name: "timeline id after double dash",
			in:   []string{"planline", "--", "tl-abc123"},
			want: []string{"planline", "--", "tui", "tl-abc123"},
		},
		{
			name: "subcommand not rewritten",
			in:   []string{"planline", "tasks", "list", "tl-abc123"},
			want: []string{"planline", "tasks", "list", "tl-abc123"},
		},
		{
			name: "bare prefix not rewritten",
			in:   []string{"planline", "tl-"},
			want: []string{"planline", "tl-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectTimelineArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectTimelineArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
