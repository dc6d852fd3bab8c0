package json

import (
	"strings"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
		wantName  string
	}{
		{
			name:     "single object",
			input:    `{"name": "spaetzle"}`,
			wantName: "spaetzle",
		},
		{
			name:     "trailing whitespace is fine",
			input:    `{"name": "spaetzle"}` + "\n  ",
			wantName: "spaetzle",
		},
		{
			name:      "trailing token",
			input:     `{"name": "spaetzle"}{"name": "extra"}`,
			wantError: true,
		},
		{
			name:      "malformed document",
			input:     `{"name": `,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst struct {
				Name string `json:"name"`
			}
			err := DecodeJSON(strings.NewReader(tt.input), &dst)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dst.Name != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, dst.Name)
			}
		})
	}
}

func TestDecodeJSONIntoSlice(t *testing.T) {
	var dst []struct {
		ID string `json:"id"`
	}
	input := `[{"id": "a"}, {"id": "b"}]`
	if err := DecodeJSON(strings.NewReader(input), &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dst) != 2 || dst[0].ID != "a" || dst[1].ID != "b" {
		t.Errorf("unexpected result: %+v", dst)
	}
}
