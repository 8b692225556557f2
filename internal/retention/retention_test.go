package retention

import (
	"fmt"
	"testing"

	"github.com/cadre-oss/promptvault/internal/snapshot"
)

func versions(n int) []snapshot.Metadata {
	out := make([]snapshot.Metadata, n)
	for i := range out {
		out[i] = snapshot.Metadata{VersionID: fmt.Sprintf("v%d", n-i)}
	}
	return out
}

func TestSelectForDeletion(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		keep  int
		want  int
		first string
	}{
		{"under window", 3, 5, 0, ""},
		{"exact window", 5, 5, 0, ""},
		{"excess", 10, 3, 7, "v7"},
		{"keep zero", 4, 0, 4, "v4"},
		{"negative keep", 2, -1, 2, "v2"},
		{"empty", 0, 3, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectForDeletion(versions(tt.n), tt.keep)
			if len(got) != tt.want {
				t.Fatalf("expected %d selected, got %d", tt.want, len(got))
			}
			if tt.want > 0 && got[0].VersionID != tt.first {
				t.Errorf("expected first selected %s, got %s", tt.first, got[0].VersionID)
			}
		})
	}
}

func TestSelectForDeletion_DoesNotAlias(t *testing.T) {
	in := versions(4)
	got := SelectForDeletion(in, 2)
	got[0].VersionID = "changed"
	if in[2].VersionID != "v2" {
		t.Error("selection must not alias the input slice")
	}
}
