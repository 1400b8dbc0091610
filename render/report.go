// Package render prints and serializes component dependency reports.
package render

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/aminech33/newmars/scanner"
)

// titleCase capitalizes the first letter of each word
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// groupName names the section a file belongs to: its first directory under
// src/components, or "Components" for files at the top level.
func groupName(root, path string) string {
	rel, err := filepath.Rel(scanner.ComponentsPath(root), path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "Components"
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "Components"
	}
	name := strings.ReplaceAll(parts[0], "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return titleCase(name)
}

type countedName struct {
	name  string
	count int
}

// rank sorts counts descending, then by name.
func rank(counts map[string]int) []countedName {
	var out []countedName
	for name, n := range counts {
		out = append(out, countedName{name, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

// Report renders the component dependency report for the project at root.
func Report(w io.Writer, root string, result *scanner.AnalysisResult) {
	p := palette{on: useColor(w)}
	projectName := filepath.Base(root)

	if len(result.Dependencies) == 0 {
		fmt.Fprintf(w, "  No component files found in %s (%d source files).\n", scanner.ComponentsDir, result.TotalFiles)
		return
	}

	storeCounts := make(map[string]int)
	importCounts := make(map[string]int)
	totalImports := 0
	for _, d := range result.Dependencies {
		for _, f := range d.StoreUsage {
			storeCounts[f]++
		}
		for _, imp := range d.Imports {
			importCounts[imp]++
		}
		totalImports += len(d.Imports)
	}

	// Header box with store fields, capped at 80 like the terminal default
	title := fmt.Sprintf("%s - Component Dependencies", projectName)
	maxWidth := len(title) + 6
	var storeLine string
	if len(storeCounts) > 0 {
		var parts []string
		for _, s := range rank(storeCounts) {
			parts = append(parts, fmt.Sprintf("%s (%d)", s.name, s.count))
		}
		storeLine = "Store: " + strings.Join(parts, ", ")
		if len(storeLine)+4 > maxWidth {
			maxWidth = len(storeLine) + 4
		}
	}
	if limit := GetTerminalWidth(); maxWidth > limit {
		maxWidth = limit
	}
	if maxWidth > 80 {
		maxWidth = 80
	}
	if maxWidth < 40 {
		maxWidth = 40
	}
	innerWidth := maxWidth - 2

	fmt.Fprintln(w)
	fmt.Fprintf(w, "╭%s╮\n", strings.Repeat("─", innerWidth))
	fmt.Fprintf(w, "│%s%s%s│\n", p.c(Bold), CenterString(title, innerWidth), p.c(Reset))
	if storeLine != "" {
		fmt.Fprintf(w, "├%s┤\n", strings.Repeat("─", innerWidth))
		contentWidth := innerWidth - 2
		line := storeLine
		for len(line) > contentWidth {
			breakAt := strings.LastIndex(line[:contentWidth], ", ")
			if breakAt == -1 {
				breakAt = contentWidth - 1
			} else {
				breakAt++
			}
			fmt.Fprintf(w, "│ %-*s │\n", contentWidth, line[:breakAt])
			line = "    " + strings.TrimLeft(line[breakAt:], " ")
		}
		fmt.Fprintf(w, "│ %-*s │\n", contentWidth, line)
	}
	fmt.Fprintf(w, "╰%s╯\n", strings.Repeat("─", innerWidth))
	fmt.Fprintln(w)

	// Group by first directory under src/components
	groups := make(map[string][]scanner.CodeDependency)
	for _, d := range result.Dependencies {
		g := groupName(root, d.FilePath)
		groups[g] = append(groups[g], d)
	}
	var groupNames []string
	for name := range groups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	for _, group := range groupNames {
		deps := groups[group]
		sort.Slice(deps, func(i, j int) bool { return deps[i].ComponentName < deps[j].ComponentName })

		headerLen := 60 - len(group) - 1
		if headerLen < 1 {
			headerLen = 1
		}
		fmt.Fprintf(w, "%s%s%s %s\n", p.c(BoldWhite), group, p.c(Reset), strings.Repeat("═", headerLen))

		for _, d := range deps {
			name := d.ComponentName
			indent := strings.Repeat(" ", len(name))
			switch len(d.Imports) {
			case 0:
				fmt.Fprintf(w, "  %s\n", name)
			case 1, 2, 3, 4:
				fmt.Fprintf(w, "  %s ───▶ %s\n", name, joinImports(p, d.Imports))
			default:
				last := len(d.Imports) - 1
				fmt.Fprintf(w, "  %s ──┬──▶ %s\n", name, colorImport(p, d.Imports[0]))
				for _, imp := range d.Imports[1:last] {
					fmt.Fprintf(w, "  %s   ├──▶ %s\n", indent, colorImport(p, imp))
				}
				fmt.Fprintf(w, "  %s   └──▶ %s\n", indent, colorImport(p, d.Imports[last]))
			}
			if len(d.StoreUsage) > 0 {
				fmt.Fprintf(w, "  %s   %sstore:%s %s\n", indent, p.c(Magenta), p.c(Reset), strings.Join(d.StoreUsage, ", "))
			}
		}
		fmt.Fprintln(w)
	}

	// Most imported modules
	var hubs []string
	for i, h := range rank(importCounts) {
		if i >= 6 || h.count < 2 {
			break
		}
		hubs = append(hubs, fmt.Sprintf("%s (%d←)", h.name, h.count))
	}
	if len(hubs) > 0 {
		fmt.Fprintln(w, strings.Repeat("─", 61))
		fmt.Fprintf(w, "HUBS: %s\n", strings.Join(hubs, ", "))
	}

	fmt.Fprintf(w, "%d files · %d components · %d imports · %d store fields",
		result.TotalFiles, len(result.Dependencies), totalImports, len(storeCounts))
	if n := result.Unreadable(); n > 0 {
		fmt.Fprintf(w, " · %s%d unreadable%s", p.c(Red), n, p.c(Reset))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

func colorImport(p palette, imp string) string {
	return p.c(ImportColor(imp)) + imp + p.c(Reset)
}

func joinImports(p palette, imports []string) string {
	parts := make([]string, len(imports))
	for i, imp := range imports {
		parts[i] = colorImport(p, imp)
	}
	return strings.Join(parts, ", ")
}
