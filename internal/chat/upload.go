package chat

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// UploadExtensions are the document types the backend extracts text from.
var UploadExtensions = []string{"pdf", "docx", "doc", "txt", "md", "csv", "json", "xml"}

// UploadPattern matches uploadable files at any depth.
var UploadPattern = "**/*.{" + strings.Join(UploadExtensions, ",") + "}"

// Uploadable reports whether name has an uploadable extension. Matching
// ignores case and any directory part.
func Uploadable(name string) bool {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	ok, _ := doublestar.Match("*.{"+strings.Join(UploadExtensions, ",")+"}", strings.ToLower(base))
	return ok
}
