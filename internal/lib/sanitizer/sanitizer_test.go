package sanitizer_test

import (
	"testing"

	"github.com/linemk/ecofinds/internal/lib/sanitizer"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	s := sanitizer.New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "Reusable Water Bottle", want: "Reusable Water Bottle"},
		{name: "trims spaces", in: "  Tote  ", want: "Tote"},
		{name: "script removed", in: `Lamp<script>alert(1)</script>`, want: "Lamp"},
		{name: "tags stripped", in: `<b>Vintage</b> <a href="http://x">chair</a>`, want: "Vintage chair"},
		{name: "apostrophe kept", in: "Kid's bike & helmet", want: "Kid's bike & helmet"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Sanitize(tt.in))
		})
	}
}
