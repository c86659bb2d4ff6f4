package ui

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// PageOpenedMsg is returned after trying to open a page in the browser.
type PageOpenedMsg struct {
	Target  string
	Success bool
	Error   error
}

// PageOpener launches the platform's URL handler for documentation pages.
type PageOpener struct {
	command   string
	docsDir   string
	available bool
}

// NewPageOpener detects the URL handler. Relative links are resolved against
// docsDir.
func NewPageOpener(docsDir string) *PageOpener {
	name := openCommand(runtime.GOOS)
	path, err := exec.LookPath(name)
	if err != nil {
		return &PageOpener{docsDir: docsDir, available: false}
	}
	return &PageOpener{command: path, docsDir: docsDir, available: true}
}

// openCommand returns the URL handler for goos.
func openCommand(goos string) string {
	switch goos {
	case "darwin":
		return "open"
	case "windows":
		return "explorer"
	default:
		return "xdg-open"
	}
}

// IsAvailable returns whether a URL handler was found.
func (o *PageOpener) IsAvailable() bool {
	return o.available
}

// Target returns what would be handed to the URL handler for link.
func (o *PageOpener) Target(link string) string {
	if link == "" || strings.Contains(link, "://") || o.docsDir == "" {
		return link
	}
	// Drop the fragment so the file path resolves
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}
	return filepath.Join(o.docsDir, filepath.FromSlash(link))
}

// Open runs the URL handler for link asynchronously.
func (o *PageOpener) Open(link string) tea.Cmd {
	target := o.Target(link)
	if !o.available {
		return func() tea.Msg {
			return PageOpenedMsg{
				Target: target,
				Error:  fmt.Errorf("no URL handler found in PATH"),
			}
		}
	}
	command := o.command
	return func() tea.Msg {
		output, err := exec.Command(command, target).CombinedOutput()
		if err != nil {
			return PageOpenedMsg{
				Target: target,
				Error:  fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err),
			}
		}
		return PageOpenedMsg{Target: target, Success: true}
	}
}
