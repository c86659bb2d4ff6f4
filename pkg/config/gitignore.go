package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// gitignoreComment heads the block nv appends to .gitignore.
const gitignoreComment = "# nv local config and logs"

// EnsureStateDirIgnored makes sure .nv/ is listed in projectDir's .gitignore
// so logs and saved config stay out of the repository. It creates the file
// when missing and leaves it untouched when a matching pattern is present.
// An empty projectDir means the working directory.
func EnsureStateDirIgnored(projectDir string) error {
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	gitignorePath := filepath.Join(projectDir, ".gitignore")

	present, err := isIgnored(gitignorePath, StateDir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if present {
		return nil
	}
	return appendToGitignore(gitignorePath, StateDir+"/")
}

// isIgnored reports whether any active line of the .gitignore at path
// covers dir (dir, dir/, dir/*, dir/**, dir/**/*, optionally anchored).
func isIgnored(path, dir string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if coversDir(line, dir) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

func coversDir(line, dir string) bool {
	normalized := strings.TrimPrefix(line, "/")
	for _, suffix := range []string{"", "/", "/*", "/**", "/**/*"} {
		if normalized == dir+suffix {
			return true
		}
	}
	return false
}

// appendToGitignore appends pattern under a comment, creating the file if
// needed and keeping a blank line between it and existing content.
func appendToGitignore(path string, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) > 0 {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n"
	}
	toWrite += gitignoreComment + "\n" + pattern + "\n"

	_, err = file.WriteString(toWrite)
	return err
}
