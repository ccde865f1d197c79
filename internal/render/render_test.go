package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptionToHTMLRendersMarkdown(t *testing.T) {
	out := DescriptionToHTML("We are **hiring**")
	assert.Contains(t, out, "<strong>hiring</strong>")
}

func TestDescriptionToHTMLStripsScript(t *testing.T) {
	out := DescriptionToHTML(`hello <script>alert("x")</script> world`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
}
