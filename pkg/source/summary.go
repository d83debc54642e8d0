// Package source — structural summary extraction.
//
// This file extracts imports, exports, and top-level function/class
// symbols from source text using lightweight regular expressions. It is
// intentionally shallow (not a full parser) but good enough to seed
// relationship scoring and boundary detection.
package source

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/token"
)

var (
	// func <Name>(...) or func (<recv>) <Name>(...)
	reGoFunc = regexp.MustCompile(`(?m)^func\s+(?:\([^)]+\)\s*)?([A-Za-z0-9_]+)\s*[([]`)
	// type <Name> struct / interface
	reGoType = regexp.MustCompile(`(?m)^type\s+([A-Za-z0-9_]+)\s+(?:struct|interface)\b`)
	// import "x" with optional alias
	reGoImport = regexp.MustCompile(`(?m)^import\s+(?:[A-Za-z0-9_.]+\s+)?"([^"]+)"`)
	// import ( ... ) block
	reGoImportBlock = regexp.MustCompile(`(?s)import\s*\((.*?)\)`)
	reGoImportLine  = regexp.MustCompile(`(?m)^\s*(?:[A-Za-z0-9_.]+\s+)?"([^"]+)"`)

	rePyClass  = regexp.MustCompile(`(?m)^\s*class\s+([A-Za-z_]\w*)\s*[(:]`)
	rePyDef    = regexp.MustCompile(`(?m)^\s*def\s+([A-Za-z_]\w*)\s*\(`)
	rePyImport = regexp.MustCompile(`(?m)^\s*(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`)

	reJsClass     = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`)
	reJsInterface = regexp.MustCompile(`(?m)^\s*(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`)
	reJsFunc      = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\*?\s+([A-Za-z_$][\w$]*)\s*\(`)
	reJsArrow     = regexp.MustCompile(`(?m)^\s*(?:export\s+)?const\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?\([^)]*\)\s*=>`)
	reJsImport    = regexp.MustCompile(`(?m)^\s*import\s+(?:[^'"]*\s+from\s+)?['"]([^'"]+)['"]`)
	reJsRequire   = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	reJsExport    = regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:const|let|var|function|class|interface)\s+([A-Za-z_$][\w$]*)`)

	reJavaType   = regexp.MustCompile(`(?m)^\s*(?:public\s+|final\s+|abstract\s+)*(?:class|interface|enum)\s+([A-Za-z0-9_]+)`)
	reJavaMethod = regexp.MustCompile(`(?m)^\s*(?:public|protected|private)[\w<>\[\],\s]*\s([A-Za-z0-9_]+)\s*\(`)
	reJavaImport = regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([A-Za-z0-9_.]+?)(?:\.\*)?\s*;`)
)

// Summarize extracts a structural summary from file content. The
// language is inferred from the path. Unknown languages still get a
// nesting depth so splitting has something to work with.
func Summarize(path, content string) *StructuralSummary {
	data := []byte(content)
	s := &StructuralSummary{}
	lang := token.LanguageForPath(path)

	switch lang {
	case "go":
		summarizeGo(data, s)
	case "python":
		summarizePython(data, s)
	case "javascript", "typescript":
		summarizeJS(data, s)
	case "java", "csharp":
		summarizeJava(data, s)
	}

	if lang == "python" {
		s.NestingDepth = indentDepth(content)
	} else {
		s.NestingDepth = braceDepth(content)
	}

	s.Dependencies = normalizeDeps(s.Imports)
	return s
}

func summarizeGo(data []byte, s *StructuralSummary) {
	for _, m := range reGoFunc.FindAllSubmatchIndex(data, -1) {
		name := string(data[m[2]:m[3]])
		s.Functions = append(s.Functions, SymbolRef{Name: name, Line: lineOf(data, m[0])})
		if exported(name) {
			s.Exports = append(s.Exports, name)
		}
	}
	for _, m := range reGoType.FindAllSubmatchIndex(data, -1) {
		name := string(data[m[2]:m[3]])
		s.Classes = append(s.Classes, SymbolRef{Name: name, Line: lineOf(data, m[0])})
		if exported(name) {
			s.Exports = append(s.Exports, name)
		}
	}
	for _, m := range reGoImport.FindAllSubmatch(data, -1) {
		s.Imports = append(s.Imports, string(m[1]))
	}
	for _, block := range reGoImportBlock.FindAllSubmatch(data, -1) {
		for _, m := range reGoImportLine.FindAllSubmatch(block[1], -1) {
			s.Imports = append(s.Imports, string(m[1]))
		}
	}
}

func summarizePython(data []byte, s *StructuralSummary) {
	for _, m := range rePyClass.FindAllSubmatchIndex(data, -1) {
		name := string(data[m[2]:m[3]])
		s.Classes = append(s.Classes, SymbolRef{Name: name, Line: lineOf(data, m[0])})
		if topLevel(data, m[0]) {
			s.Exports = append(s.Exports, name)
		}
	}
	for _, m := range rePyDef.FindAllSubmatchIndex(data, -1) {
		name := string(data[m[2]:m[3]])
		s.Functions = append(s.Functions, SymbolRef{Name: name, Line: lineOf(data, m[0])})
		if topLevel(data, m[0]) && !strings.HasPrefix(name, "_") {
			s.Exports = append(s.Exports, name)
		}
	}
	for _, m := range rePyImport.FindAllSubmatch(data, -1) {
		if len(m[1]) > 0 {
			s.Imports = append(s.Imports, string(m[1]))
		} else if len(m[2]) > 0 {
			s.Imports = append(s.Imports, string(m[2]))
		}
	}
}

func summarizeJS(data []byte, s *StructuralSummary) {
	for _, m := range reJsClass.FindAllSubmatchIndex(data, -1) {
		s.Classes = append(s.Classes, SymbolRef{Name: string(data[m[2]:m[3]]), Line: lineOf(data, m[0])})
	}
	for _, m := range reJsInterface.FindAllSubmatchIndex(data, -1) {
		s.Classes = append(s.Classes, SymbolRef{Name: string(data[m[2]:m[3]]), Line: lineOf(data, m[0])})
	}
	for _, m := range reJsFunc.FindAllSubmatchIndex(data, -1) {
		s.Functions = append(s.Functions, SymbolRef{Name: string(data[m[2]:m[3]]), Line: lineOf(data, m[0])})
	}
	for _, m := range reJsArrow.FindAllSubmatchIndex(data, -1) {
		s.Functions = append(s.Functions, SymbolRef{Name: string(data[m[2]:m[3]]), Line: lineOf(data, m[0])})
	}
	for _, m := range reJsImport.FindAllSubmatch(data, -1) {
		s.Imports = append(s.Imports, string(m[1]))
	}
	for _, m := range reJsRequire.FindAllSubmatch(data, -1) {
		s.Imports = append(s.Imports, string(m[1]))
	}
	for _, m := range reJsExport.FindAllSubmatch(data, -1) {
		s.Exports = append(s.Exports, string(m[1]))
	}
}

func summarizeJava(data []byte, s *StructuralSummary) {
	for _, m := range reJavaType.FindAllSubmatchIndex(data, -1) {
		name := string(data[m[2]:m[3]])
		s.Classes = append(s.Classes, SymbolRef{Name: name, Line: lineOf(data, m[0])})
		s.Exports = append(s.Exports, name)
	}
	for _, m := range reJavaMethod.FindAllSubmatchIndex(data, -1) {
		s.Functions = append(s.Functions, SymbolRef{Name: string(data[m[2]:m[3]]), Line: lineOf(data, m[0])})
	}
	for _, m := range reJavaImport.FindAllSubmatch(data, -1) {
		s.Imports = append(s.Imports, string(m[1]))
	}
}

// lineOf converts a byte offset to a 1-based line number.
func lineOf(data []byte, off int) int {
	return 1 + bytes.Count(data[:off], []byte("\n"))
}

func exported(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper(rune(name[0]))
}

// topLevel reports whether the match starts at column 0.
func topLevel(data []byte, off int) bool {
	return off == 0 || data[off-1] == '\n'
}

// braceDepth returns the maximum brace nesting depth, skipping braces
// inside line comments and string literals on a best-effort basis.
func braceDepth(content string) int {
	depth, max := 0, 0
	var quote byte
	for i := 0; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '/':
			if i+1 < len(content) && content[i+1] == '/' {
				// Skip to end of line
				for i < len(content) && content[i] != '\n' {
					i++
				}
			}
		case '{':
			depth++
			if depth > max {
				max = depth
			}
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return max
}

// indentDepth approximates nesting for indentation-scoped languages,
// assuming four-space indents.
func indentDepth(content string) int {
	max := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		spaces := 0
		for _, c := range line {
			if c == ' ' {
				spaces++
			} else if c == '\t' {
				spaces += 4
			} else {
				break
			}
		}
		if d := spaces / 4; d > max {
			max = d
		}
	}
	return max
}

var droppableExts = map[string]bool{
	"js": true, "jsx": true, "ts": true, "tsx": true, "mjs": true,
	"cjs": true, "py": true, "go": true, "java": true, "rb": true,
	"json": true, "vue": true, "min": true,
}

// normalizeDeps reduces import targets to bare names comparable against
// file basenames: "github.com/x/y/client", "./utils/client.js", and
// "pkg.client" all normalize to "client".
func normalizeDeps(imports []string) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, imp := range imports {
		name := strings.TrimSuffix(imp, "/")
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		// Peel file extensions; keep the last segment of dotted module paths
		for {
			i := strings.LastIndexByte(name, '.')
			if i <= 0 {
				break
			}
			if droppableExts[name[i+1:]] {
				name = name[:i]
			} else {
				name = name[i+1:]
			}
		}
		name = strings.ToLower(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		deps = append(deps, name)
	}
	return deps
}
