package manifeststore

import (
	"fmt"
	"regexp"
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/domain"
)

// Install edits are performed on the manifest text rather than by
// re-marshaling the parsed document, so user comments and formatting
// survive. Entries are written as [install.<id>] subtables; removal also
// understands inline `<id> = {...}` entries under [install].

var bareKeyRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func tomlKey(id string) string {
	if bareKeyRE.MatchString(id) {
		return id
	}
	return fmt.Sprintf("%q", id)
}

// AddInstall inserts an install entry into the manifest text and returns the
// updated document. The id must not already be installed.
func (s *Store) AddInstall(manifestRaw []byte, id string, req domain.PackageRequest) ([]byte, error) {
	m, err := ParseManifest(manifestRaw)
	if err != nil {
		return nil, err
	}
	if _, ok := m.Install[id]; ok {
		return nil, zerr.With(domain.ErrAlreadyInstalled, "install_id", id)
	}

	block := []string{fmt.Sprintf("[install.%s]", tomlKey(id))}
	block = append(block, fmt.Sprintf("path = %q", req.Path))
	if req.Version != "" {
		block = append(block, fmt.Sprintf("version = %q", req.Version))
	}
	if req.Input != "" {
		block = append(block, fmt.Sprintf("input = %q", req.Input))
	}

	lines := strings.Split(string(manifestRaw), "\n")
	at := installInsertionPoint(lines)
	if at == len(lines) {
		// Insert before trailing blank lines so the document keeps its
		// final newline.
		for at > 0 && strings.TrimSpace(lines[at-1]) == "" {
			at--
		}
	}
	out := make([]string, 0, len(lines)+len(block)+1)
	out = append(out, lines[:at]...)
	if at > 0 && strings.TrimSpace(lines[at-1]) != "" {
		out = append(out, "")
	}
	out = append(out, block...)
	if at < len(lines) && strings.TrimSpace(lines[at]) != "" {
		out = append(out, "")
	}
	out = append(out, lines[at:]...)

	updated := []byte(strings.Join(out, "\n"))
	if _, err := ParseManifest(updated); err != nil {
		return nil, zerr.Wrap(err, "manifest edit produced an invalid document")
	}
	return updated, nil
}

// RemoveInstall deletes an install entry from the manifest text and returns
// the updated document.
func (s *Store) RemoveInstall(manifestRaw []byte, id string) ([]byte, error) {
	m, err := ParseManifest(manifestRaw)
	if err != nil {
		return nil, err
	}
	if _, ok := m.Install[id]; !ok {
		return nil, zerr.With(domain.ErrNotInstalled, "install_id", id)
	}

	lines := strings.Split(string(manifestRaw), "\n")
	out, removed := removeSubtable(lines, id)
	if !removed {
		out, removed = removeInlineEntry(lines, id)
	}
	if !removed {
		return nil, zerr.With(zerr.New("unable to locate install entry in manifest text"), "install_id", id)
	}

	updated := []byte(strings.Join(out, "\n"))
	reparsed, err := ParseManifest(updated)
	if err != nil {
		return nil, zerr.Wrap(err, "manifest edit produced an invalid document")
	}
	if _, ok := reparsed.Install[id]; ok {
		return nil, zerr.With(zerr.New("unable to remove install entry from manifest text"), "install_id", id)
	}
	return updated, nil
}

// installInsertionPoint returns the line index new install subtables go at:
// after the last existing install block, or at the end of the document.
func installInsertionPoint(lines []string) int {
	last := -1
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "[install.") || t == "[install]" {
			last = i
		}
	}
	if last < 0 {
		return len(lines)
	}
	return blockEnd(lines, last)
}

// blockEnd returns the index one past the last content line of the table
// block starting at the header line start.
func blockEnd(lines []string, start int) int {
	end := start + 1
	for end < len(lines) {
		t := strings.TrimSpace(lines[end])
		if strings.HasPrefix(t, "[") {
			break
		}
		end++
	}
	// Leave trailing blank lines and comments attached to the following
	// table to the following block.
	for end > start+1 {
		t := strings.TrimSpace(lines[end-1])
		if t != "" && !strings.HasPrefix(t, "#") {
			break
		}
		end--
	}
	return end
}

func removeSubtable(lines []string, id string) ([]string, bool) {
	headers := []string{
		fmt.Sprintf("[install.%s]", id),
		fmt.Sprintf("[install.%q]", id),
	}
	for i, line := range lines {
		t := strings.TrimSpace(line)
		for _, h := range headers {
			if t != h {
				continue
			}
			end := blockEnd(lines, i)
			// Swallow one blank separator line after the block.
			if end < len(lines) && strings.TrimSpace(lines[end]) == "" {
				end++
			}
			out := make([]string, 0, len(lines)-(end-i))
			out = append(out, lines[:i]...)
			out = append(out, lines[end:]...)
			return out, true
		}
	}
	return lines, false
}

func removeInlineEntry(lines []string, id string) ([]string, bool) {
	prefixes := []string{id + " ", id + "=", fmt.Sprintf("%q ", id), fmt.Sprintf("%q=", id)}
	inInstall := false
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "[") {
			inInstall = t == "[install]"
			continue
		}
		if !inInstall {
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(t, p) {
				out := make([]string, 0, len(lines)-1)
				out = append(out, lines[:i]...)
				out = append(out, lines[i+1:]...)
				return out, true
			}
		}
	}
	return lines, false
}
