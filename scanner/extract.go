package scanner

import (
	"strings"
	"unicode"
)

// keywordOffset is the length of "function ". It is applied after a "const "
// match as well, which shifts const-declared names by three characters.
const keywordOffset = len("function ")

// ExtractImports returns the module specifier of every single-line import statement.
//
// A line counts when its trimmed text starts with "import" and it contains "from".
// The specifier is whatever follows the first "from", stripped of whitespace,
// quotes and semicolons.
func ExtractImports(content string) []string {
	var imports []string
	for _, line := range splitLines(content) {
		if !strings.HasPrefix(strings.TrimSpace(line), "import") {
			continue
		}
		pos := strings.Index(line, "from")
		if pos < 0 {
			continue
		}
		path := strings.Trim(strings.TrimSpace(line[pos+len("from"):]), "'\";")
		if path != "" {
			imports = append(imports, path)
		}
	}
	return imports
}

// ExtractStoreUsage returns the store fields read through useStore selectors,
// de-duplicated in first-seen order.
func ExtractStoreUsage(content string) []string {
	var usage []string
	seen := make(map[string]bool)
	for _, line := range splitLines(content) {
		if !strings.Contains(line, "useStore") {
			continue
		}
		pos := strings.Index(line, "state.")
		if pos < 0 {
			continue
		}
		field := identifierAt(line, pos+len("state."))
		if field != "" && !seen[field] {
			seen[field] = true
			usage = append(usage, field)
		}
	}
	return usage
}

// ExtractComponentName returns the name declared by the first
// "export function" / "export const" line that yields one, or the file name
// without its .tsx/.ts suffix.
func ExtractComponentName(content, fileName string) string {
	for _, line := range splitLines(content) {
		if !strings.Contains(line, "export function") && !strings.Contains(line, "export const") {
			continue
		}
		start := strings.Index(line, "function ")
		if start < 0 {
			start = strings.Index(line, "const ")
		}
		if start < 0 {
			continue
		}
		if name := identifierAt(line, start+keywordOffset); name != "" {
			return name
		}
	}
	return trimSourceSuffix(fileName)
}

// identifierAt consumes letters, digits and underscores starting at byte offset start.
func identifierAt(line string, start int) string {
	if start >= len(line) {
		return ""
	}
	rest := line[start:]
	end := 0
	for i, r := range rest {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			break
		}
		end = i + len(string(r))
	}
	return rest[:end]
}

// trimSourceSuffix strips every trailing ".tsx", then every trailing ".ts".
func trimSourceSuffix(name string) string {
	for strings.HasSuffix(name, ".tsx") {
		name = strings.TrimSuffix(name, ".tsx")
	}
	for strings.HasSuffix(name, ".ts") {
		name = strings.TrimSuffix(name, ".ts")
	}
	return name
}

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
