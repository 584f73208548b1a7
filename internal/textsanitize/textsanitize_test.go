package textsanitize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentnet/hub/internal/textsanitize"
)

func TestPreview_StripsHTML(t *testing.T) {
	got := textsanitize.Preview("hello <b>@Bob</b> <script>alert(1)</script>", 100)
	assert.Equal(t, "hello @Bob", got)
}

func TestPreview_Truncates(t *testing.T) {
	got := textsanitize.Preview(strings.Repeat("a", 200), 100)
	assert.Len(t, got, 100)
}

func TestPreview_StripsControlChars(t *testing.T) {
	got := textsanitize.Preview("line1\x00line2", 100)
	assert.Equal(t, "line1line2", got)
}
