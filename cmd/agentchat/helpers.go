package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/joss/agentchat/internal/api"
	"github.com/joss/agentchat/internal/chat"
	"github.com/joss/agentchat/internal/directory"
	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/render"
	"github.com/joss/agentchat/internal/ui"
)

// console is the CLI's view for the controllers. Success banners are printed
// as they happen; the last failure banner becomes the error line.
type console struct {
	w       *render.Writer
	quiet   bool
	route   *ui.Route
	failure string

	listing directory.Listing
	info    chat.AgentInfo
	entries []chat.Entry
	reply   *chat.Entry
	files   chat.FileList
}

func newConsole(w *render.Writer, quiet bool) *console {
	return &console{w: w, quiet: quiet}
}

func (c *console) Navigate(r ui.Route) { c.route = &r }

func (c *console) Notify(b ui.Banner) {
	if b.Kind == ui.KindError {
		c.failure = b.Text
		return
	}
	if !c.quiet {
		c.w.Banner(b)
	}
}

func (c *console) ShowAgents(l directory.Listing)        { c.listing = l }
func (c *console) ShowAgent(i chat.AgentInfo)            { c.info = i }
func (c *console) ShowMessages(es []chat.Entry)          { c.entries = es }
func (c *console) AppendMessage(chat.Entry)              {}
func (c *console) ShowPending(string)                    {}
func (c *console) ReplacePending(_ string, e chat.Entry) { c.reply = &e }
func (c *console) RemovePending(string)                  {}
func (c *console) SetInputEnabled(bool)                  {}
func (c *console) ShowFiles(l chat.FileList)             { c.files = l }

// exitOnError prints err the way users expect and exits.
func exitOnError(err error) {
	switch {
	case api.IsUnauthenticated(err):
		fmt.Fprintln(os.Stderr, "Not logged in. Run 'agentchat login'.")
	case con != nil && con.failure != "":
		fmt.Fprintf(os.Stderr, "Error: %s\n", con.failure)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseAgentID parses a positional agent id.
func parseAgentID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid agent id %q", s)
	}
	return id, nil
}

var stdin = bufio.NewReader(os.Stdin)

// prompt reads one line from stdin after printing label.
func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSpace(strings.TrimSuffix(label, ":")), err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads a password without echo when stdin is a terminal.
func readPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(label)
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// confirmPrompt asks a y/N question on the terminal.
func confirmPrompt(question string) bool {
	answer, err := prompt(question + " [y/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// termWidth returns the stdout width, or 80 when it is not a terminal.
func termWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// printEntry writes one chat message rendered for the terminal.
func printEntry(w *render.Writer, e chat.Entry) {
	label := "You"
	if e.Message.Role == domain.RoleAssistant {
		label = "Agent"
	}
	w.Header(label)
	w.Println("%s", render.Terminal(e.Doc, render.DefaultStyles(), termWidth()))
	w.Line()
}
