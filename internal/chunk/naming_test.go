package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDestinationName(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "plupload id", id: "o_1h2k3l4", want: "o_1h2k3l4"},
		{name: "uuid", id: "5f1c1c2e-8f7a-4b1e-9c43-0a1b2c3d4e5f", want: "5f1c1c2e-8f7a-4b1e-9c43-0a1b2c3d4e5f"},
		{name: "traversal", id: "../etc/passwd", want: "~2e2e2f6574632f706173737764"},
		{name: "dot", id: ".", want: "~2e"},
		{name: "empty", id: "", want: "~"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DestinationName(tt.id)
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.ContainsAny(got, `/\`))
		})
	}
}

func TestDestinationName_Injective(t *testing.T) {
	ids := []string{"a", "A", "a.b", "a/b", "~61", "61", "", " ", "a b", "a_b", "a-b"}
	seen := make(map[string]string, len(ids))
	for _, id := range ids {
		name := DestinationName(id)
		if prev, ok := seen[name]; ok {
			t.Fatalf("ids %q and %q map to the same name %q", prev, id, name)
		}
		seen[name] = id
	}
}
