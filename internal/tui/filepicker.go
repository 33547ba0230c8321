package tui

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/joss/agentchat/internal/chat"
)

// maxPickerFiles bounds a scan of a large tree.
const maxPickerFiles = 2000

// fileItem implements list.Item for the file picker
type fileItem struct {
	path    string
	relPath string
}

func (i fileItem) Title() string       { return "📄 " + i.relPath }
func (i fileItem) Description() string { return i.path }
func (i fileItem) FilterValue() string { return i.relPath }

// fileItems is a slice of fileItem that implements fuzzy.Source
type fileItems []fileItem

func (f fileItems) String(i int) string { return f[i].relPath }
func (f fileItems) Len() int            { return len(f) }

// FilePicker selects a document to upload. Typing narrows the list by fuzzy match.
type FilePicker struct {
	list    list.Model
	items   fileItems
	workDir string
	filter  string
}

// NewFilePicker creates a picker rooted at workDir.
func NewFilePicker(workDir string, width, height int) *FilePicker {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("205")).
		BorderForeground(lipgloss.Color("205"))

	l := list.New([]list.Item{}, delegate, width, height)
	l.Title = "Upload file"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	return &FilePicker{list: l, workDir: workDir}
}

// ScanUploadable lists files under root matching chat.UploadPattern, skipping
// hidden and dependency directories. Paths are relative to root.
func ScanUploadable(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || skipDir(name)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(chat.UploadPattern, strings.ToLower(rel)); ok {
			out = append(out, rel)
		}
		if len(out) >= maxPickerFiles {
			return filepath.SkipAll
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

func skipDir(name string) bool {
	switch name {
	case "node_modules", "vendor", "__pycache__", "dist", "build":
		return true
	}
	return false
}

// LoadFiles rescans the working directory.
func (fp *FilePicker) LoadFiles() error {
	paths, err := ScanUploadable(fp.workDir)
	if err != nil {
		return err
	}
	items := make(fileItems, len(paths))
	for i, p := range paths {
		items[i] = fileItem{path: filepath.Join(fp.workDir, filepath.FromSlash(p)), relPath: p}
	}
	fp.items = items
	fp.updateList("")
	return nil
}

// updateList shows items matching filter, best match first.
func (fp *FilePicker) updateList(filter string) {
	fp.filter = filter

	var listItems []list.Item
	if filter == "" {
		for _, item := range fp.items {
			listItems = append(listItems, item)
		}
	} else {
		for _, match := range fuzzy.FindFrom(filter, fp.items) {
			listItems = append(listItems, fp.items[match.Index])
		}
	}
	fp.list.SetItems(listItems)
	fp.list.ResetSelected()
}

// Filter returns the current query.
func (fp *FilePicker) Filter() string { return fp.filter }

// Len returns how many items are visible.
func (fp *FilePicker) Len() int { return len(fp.list.Items()) }

// Update handles typing and navigation.
func (fp *FilePicker) Update(msg tea.Msg) (*FilePicker, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyRunes:
			fp.updateList(fp.filter + string(key.Runes))
			return fp, nil
		case tea.KeyBackspace:
			if r := []rune(fp.filter); len(r) > 0 {
				fp.updateList(string(r[:len(r)-1]))
			}
			return fp, nil
		}
	}
	var cmd tea.Cmd
	fp.list, cmd = fp.list.Update(msg)
	return fp, cmd
}

// View renders the file picker
func (fp *FilePicker) View() string {
	header := mutedStyle.Render("filter: ") + fp.filter
	if len(fp.items) == 0 {
		return header + "\n" + mutedStyle.Render("No uploadable files (pdf, docx, doc, txt, md, csv, json, xml)")
	}
	return header + "\n" + fp.list.View()
}

// SelectedItem returns the absolute path of the highlighted file.
func (fp *FilePicker) SelectedItem() (string, bool) {
	item, ok := fp.list.SelectedItem().(fileItem)
	if !ok {
		return "", false
	}
	return item.path, true
}

// SetSize updates the picker dimensions
func (fp *FilePicker) SetSize(width, height int) {
	fp.list.SetSize(width, height)
}
