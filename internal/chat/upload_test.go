package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadable(t *testing.T) {
	for _, name := range []string{"cv.pdf", "Report.DOCX", "notes/todo.md", `C:\docs\data.csv`, "a.b.json"} {
		assert.True(t, Uploadable(name), name)
	}
	for _, name := range []string{"image.png", "pdf", "archive.tar.gz", "", "notes.md.bak"} {
		assert.False(t, Uploadable(name), name)
	}
}
