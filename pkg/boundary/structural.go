// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package boundary

import (
	"regexp"
	"sort"
	"strings"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/token"
)

// defaultTolerance is how far past the target a chunk may grow before
// the detector must cut.
const defaultTolerance = 0.10

// StructuralDetector finds cut points by tracking brace depth (or
// indentation for Python) and classifying the construct each top-level
// close ends. Malformed code degrades to arbitrary cuts, never errors.
type StructuralDetector struct {
	est       token.Estimator
	tolerance float64
}

// NewStructuralDetector creates a detector sizing chunks with est.
func NewStructuralDetector(est token.Estimator) *StructuralDetector {
	return &StructuralDetector{
		est:       est,
		tolerance: defaultTolerance,
	}
}

// Detect produces a chunk plan for content. Success is false only for
// empty content or a nonsense target.
func (d *StructuralDetector) Detect(path, content string, summary *source.StructuralSummary, targetTokens int) Result {
	if targetTokens <= 0 || strings.TrimSpace(content) == "" {
		return Result{Success: false}
	}

	lines := splitLines(content)
	lineCount := len(lines)
	points := d.collectPoints(path, lines, summary)
	prefix := charPrefix(lines)

	budgetChars := int(float64(targetTokens) * token.DefaultCharsPerToken * (1 + d.tolerance))

	var chunks []Chunk
	start := 1
	for start <= lineCount {
		if prefix[lineCount]-prefix[start-1] <= budgetChars {
			chunks = append(chunks, d.makeChunk(path, lines, points, start, lineCount, ""))
			break
		}

		overflow := largestFit(prefix, start, lineCount, budgetChars)
		if overflow < start {
			// A single line larger than the whole budget. Take it alone.
			overflow = start
		}

		// Prefer boundaries in the upper window so chunks stay near the
		// target. An early cut is only worth it at a structural boundary.
		floor := start + (overflow-start)/4
		cut, ok := bestBoundary(points, floor, overflow, PriorityBlank)
		if !ok {
			cut, ok = bestBoundary(points, start, overflow, PriorityFuncEnd)
		}
		forced := ""
		if !ok {
			cut = overflow
			forced = TypeMixed
		}

		chunks = append(chunks, d.makeChunk(path, lines, points, start, cut, forced))
		start = cut + 1
	}

	return Result{Success: true, Chunks: chunks}
}

// makeChunk assembles one chunk. forcedType overrides the type derived
// from contained boundaries.
func (d *StructuralDetector) makeChunk(path string, lines []string, points []Point, start, end int, forcedType string) Chunk {
	content := strings.Join(lines[start-1:end], "\n")

	contained := pointsInRange(points, start, end)
	typ := forcedType
	if typ == "" {
		typ = typeForRange(contained)
	}

	return Chunk{
		StartLine:       start,
		EndLine:         end,
		Content:         content,
		EstimatedTokens: d.est.Estimate(path, content).TotalTokens,
		Type:            typ,
		Boundaries:      contained,
	}
}

// collectPoints gathers candidate cut points for the file's language,
// seeding from the structural summary when scanning finds nothing.
func (d *StructuralDetector) collectPoints(path string, lines []string, summary *source.StructuralSummary) []Point {
	lang := token.LanguageForPath(path)

	var points []Point
	if lang == "python" {
		points = indentPoints(lines)
	} else {
		points = bracePoints(lines, lang)
	}

	if !hasStructural(points) && summary != nil {
		points = append(points, summaryPoints(summary, len(lines))...)
	}

	return dedupePoints(points)
}

func hasStructural(points []Point) bool {
	for _, p := range points {
		if p.Priority >= PriorityBlockEnd {
			return true
		}
	}
	return false
}

var (
	reDeclClass     = regexp.MustCompile(`^(?:export\s+)?(?:public\s+|private\s+|protected\s+|final\s+|abstract\s+|static\s+|default\s+)*class\b`)
	reDeclInterface = regexp.MustCompile(`^(?:export\s+)?(?:public\s+)?interface\b`)
	reDeclFunc      = regexp.MustCompile(`^(?:export\s+)?(?:public\s+|private\s+|protected\s+|static\s+|async\s+)*function\b|^[\w<>\[\], ]*\w+\s*\([^;]*\)\s*\{\s*$`)
)

// declKind classifies a top-level declaration line.
func declKind(trimmed, lang string) string {
	if lang == "go" {
		switch {
		case strings.HasPrefix(trimmed, "func "), strings.HasPrefix(trimmed, "func("):
			return TypeFunction
		case strings.HasPrefix(trimmed, "type ") && strings.Contains(trimmed, " interface"):
			return TypeInterface
		case strings.HasPrefix(trimmed, "type ") && strings.Contains(trimmed, " struct"):
			return TypeClass
		default:
			return ""
		}
	}

	// Control-flow openers look like calls to the function regex
	switch firstWord(trimmed) {
	case "if", "else", "for", "while", "switch", "try", "catch", "do", "return":
		return ""
	}

	switch {
	case reDeclClass.MatchString(trimmed):
		return TypeClass
	case reDeclInterface.MatchString(trimmed):
		return TypeInterface
	case reDeclFunc.MatchString(trimmed):
		return TypeFunction
	default:
		return ""
	}
}

func firstWord(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_') {
			return s[:i]
		}
	}
	return s
}

// bracePoints walks brace-scoped source, emitting a point wherever a
// top-level construct closes and at top-level blank lines.
func bracePoints(lines []string, lang string) []Point {
	var points []Point
	braceDepth := 0
	parenDepth := 0
	topKind := ""

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if braceDepth == 0 && parenDepth == 0 {
			if trimmed == "" {
				points = append(points, Point{Line: lineNo, Priority: PriorityBlank, Kind: TypeSegment})
				continue
			}
			if k := declKind(trimmed, lang); k != "" {
				topKind = k
			} else if topKind == "" {
				topKind = TypeBlock
			}
		}

		braceNet, parenNet, braceOpens := countDelims(line)
		before := braceDepth
		braceDepth += braceNet
		parenDepth += parenNet
		if braceDepth < 0 {
			braceDepth = 0
		}
		if parenDepth < 0 {
			parenDepth = 0
		}

		// braceOpens catches single-line constructs that open and close
		// on the same line.
		closed := braceDepth == 0 && parenDepth == 0 && (before > 0 || braceOpens > 0)
		if closed && topKind != "" {
			points = append(points, Point{Line: lineNo, Priority: priorityFor(topKind), Kind: topKind})
			topKind = ""
		}
	}
	return points
}

// countDelims returns the brace and paren balance of one line, skipping
// string literals and line comments.
func countDelims(line string) (braceNet, parenNet, braceOpens int) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
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
			if i+1 < len(line) && line[i+1] == '/' {
				return
			}
		case '#':
			return
		case '{':
			braceNet++
			braceOpens++
		case '}':
			braceNet--
		case '(':
			parenNet++
		case ')':
			parenNet--
		}
	}
	return
}

// indentPoints walks indentation-scoped source. A column-0 line ends
// the previous block at the last non-blank line before it.
func indentPoints(lines []string) []Point {
	var points []Point
	blockKind := ""
	sawBody := false

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			// Blanks are only good cuts between top-level blocks
			if nextIndent(lines, i) == 0 {
				points = append(points, Point{Line: lineNo, Priority: PriorityBlank, Kind: TypeSegment})
			}
			continue
		}

		indent := leadingWidth(line)
		if indent == 0 {
			if sawBody && blockKind != "" {
				if end := prevNonBlank(lines, i); end > 0 {
					points = append(points, Point{Line: end, Priority: priorityFor(blockKind), Kind: blockKind})
				}
			}
			blockKind = pyDeclKind(trimmed)
			sawBody = false
		} else if blockKind != "" {
			// A method starting one level in still marks a decent cut
			// before it, between sibling methods of a big class.
			if sawBody && indent <= 4 && pyDeclKind(trimmed) != "" {
				if end := prevNonBlank(lines, i); end > 0 {
					points = append(points, Point{Line: end, Priority: PriorityBlockEnd, Kind: TypeBlock})
				}
			}
			sawBody = true
		}
	}

	// EOF closes whatever block was still open.
	if sawBody && blockKind != "" {
		if end := prevNonBlank(lines, len(lines)); end > 0 {
			points = append(points, Point{Line: end, Priority: priorityFor(blockKind), Kind: blockKind})
		}
	}
	return points
}

func pyDeclKind(trimmed string) string {
	switch {
	case strings.HasPrefix(trimmed, "class "):
		return TypeClass
	case strings.HasPrefix(trimmed, "def "), strings.HasPrefix(trimmed, "async def "):
		return TypeFunction
	default:
		return ""
	}
}

func leadingWidth(line string) int {
	width := 0
	for _, c := range line {
		if c == ' ' {
			width++
		} else if c == '\t' {
			width += 4
		} else {
			break
		}
	}
	return width
}

// nextIndent returns the indent width of the next non-blank line after
// index i, or 0 at end of file.
func nextIndent(lines []string, i int) int {
	for j := i + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) != "" {
			return leadingWidth(lines[j])
		}
	}
	return 0
}

// prevNonBlank returns the 1-based number of the last non-blank line
// before index i, or 0.
func prevNonBlank(lines []string, i int) int {
	for j := i - 1; j >= 0; j-- {
		if strings.TrimSpace(lines[j]) != "" {
			return j + 1
		}
	}
	return 0
}

// summaryPoints derives cut points from an externally supplied summary:
// the line before each symbol ends whatever preceded it.
func summaryPoints(summary *source.StructuralSummary, lineCount int) []Point {
	var points []Point
	add := func(refs []source.SymbolRef, kind string) {
		for _, ref := range refs {
			line := ref.Line - 1
			if line < 1 || line > lineCount {
				continue
			}
			points = append(points, Point{Line: line, Priority: priorityFor(kind), Kind: kind})
		}
	}
	add(summary.Classes, TypeClass)
	add(summary.Functions, TypeFunction)
	return points
}

func priorityFor(kind string) int {
	switch kind {
	case TypeClass, TypeInterface:
		return PriorityClassEnd
	case TypeFunction:
		return PriorityFuncEnd
	case TypeBlock:
		return PriorityBlockEnd
	case TypeSegment:
		return PriorityBlank
	default:
		return PriorityArbitrary
	}
}

// dedupePoints keeps the best point per line, sorted by line.
func dedupePoints(points []Point) []Point {
	best := make(map[int]Point, len(points))
	for _, p := range points {
		cur, ok := best[p.Line]
		if !ok || p.Priority > cur.Priority ||
			(p.Priority == cur.Priority && kindRank(p.Kind) > kindRank(cur.Kind)) {
			best[p.Line] = p
		}
	}
	out := make([]Point, 0, len(best))
	for _, p := range best {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// charPrefix returns cumulative character counts: prefix[i] is the size
// of lines[0:i] including newlines.
func charPrefix(lines []string) []int {
	prefix := make([]int, len(lines)+1)
	for i, line := range lines {
		prefix[i+1] = prefix[i] + len(line) + 1
	}
	return prefix
}

// largestFit returns the largest line e in [start, lineCount] with
// chars(start..e) <= budget, or start-1 when even one line overflows.
func largestFit(prefix []int, start, lineCount, budget int) int {
	lo, hi := start, lineCount
	result := start - 1
	for lo <= hi {
		mid := (lo + hi) / 2
		if prefix[mid]-prefix[start-1] <= budget {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result
}

// bestBoundary picks the highest-priority point in [start, end],
// preferring later lines on ties.
func bestBoundary(points []Point, start, end, minPriority int) (int, bool) {
	bestLine, bestPriority := 0, 0
	for _, p := range points {
		if p.Line < start || p.Line > end || p.Priority < minPriority {
			continue
		}
		if p.Priority > bestPriority || (p.Priority == bestPriority && p.Line > bestLine) {
			bestLine, bestPriority = p.Line, p.Priority
		}
	}
	return bestLine, bestLine >= start
}

func pointsInRange(points []Point, start, end int) []Point {
	var out []Point
	for _, p := range points {
		if p.Line >= start && p.Line <= end {
			out = append(out, p)
		}
	}
	return out
}

// typeForRange names a chunk after the most significant boundary it
// contains. No boundaries at all means the chunk is a wall of code.
func typeForRange(contained []Point) string {
	best := ""
	for _, p := range contained {
		if best == "" || kindRank(p.Kind) > kindRank(best) {
			best = p.Kind
		}
	}
	if best == "" {
		return TypeMixed
	}
	return best
}

// splitLines splits content into lines without a phantom trailing entry
// when the file ends in a newline.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// NaiveSplit divides content into chunkCount equal line-count segments.
// Used as the fallback when structural detection reports failure.
func NaiveSplit(path, content string, chunkCount int, est token.Estimator) []Chunk {
	lines := splitLines(content)
	lineCount := len(lines)
	if chunkCount < 1 {
		chunkCount = 1
	}
	if chunkCount > lineCount {
		chunkCount = lineCount
	}
	if lineCount == 0 {
		return nil
	}

	per := (lineCount + chunkCount - 1) / chunkCount
	var chunks []Chunk
	for start := 1; start <= lineCount; start += per {
		end := start + per - 1
		if end > lineCount {
			end = lineCount
		}
		segment := strings.Join(lines[start-1:end], "\n")
		chunks = append(chunks, Chunk{
			StartLine:       start,
			EndLine:         end,
			Content:         segment,
			EstimatedTokens: est.Estimate(path, segment).TotalTokens,
			Type:            TypeLines,
		})
	}
	return chunks
}
