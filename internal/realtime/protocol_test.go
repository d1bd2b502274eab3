package realtime

import (
	"encoding/json"
	"testing"
)

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *string
	}{
		{
			name: "structured object",
			raw:  `{"message":"hi there"}`,
			want: strPtr("hi there"),
		},
		{
			name: "string-encoded object",
			raw:  `"{\"message\":\"wrapped\"}"`,
			want: strPtr("wrapped"),
		},
		{
			name: "object without message field",
			raw:  `{"other":"field"}`,
			want: nil,
		},
		{
			name: "plain string, not an encoded object",
			raw:  `"just text"`,
			want: nil,
		},
		{
			name: "malformed",
			raw:  `{{{`,
			want: nil,
		},
		{
			name: "empty body",
			raw:  ``,
			want: nil,
		},
		{
			name: "null",
			raw:  `null`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractMessage(json.RawMessage(tt.raw))
			if tt.want == nil {
				if got != nil {
					t.Errorf("ExtractMessage(%s) = %q, want nil", tt.raw, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ExtractMessage(%s) = nil, want %q", tt.raw, *tt.want)
			}
			if *got != *tt.want {
				t.Errorf("ExtractMessage(%s) = %q, want %q", tt.raw, *got, *tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
