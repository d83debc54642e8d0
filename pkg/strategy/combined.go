// Copyright 2026 DocGen AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package strategy

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/docgen-ai-toolkit/batch-planner/pkg/batch"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/config"
	"github.com/docgen-ai-toolkit/batch-planner/pkg/source"
)

// CombinedStrategy packs small files into shared batches using
// relationship scoring, bin-packing and a rebalancing pass.
type CombinedStrategy struct {
	cfg     config.PlannerConfig
	weights RelationshipWeights
}

// NewCombinedStrategy creates the small-file strategy.
func NewCombinedStrategy(cfg config.PlannerConfig, weights RelationshipWeights) *CombinedStrategy {
	return &CombinedStrategy{cfg: cfg, weights: weights}
}

// Name returns the strategy tag.
func (s *CombinedStrategy) Name() string { return TagCombined }

// Plan groups, packs and rebalances the small-file bucket. The whole
// pass runs sequentially: grouping and rebalancing reassign files
// between batches, so there is no per-file parallelism to exploit.
func (s *CombinedStrategy) Plan(ctx context.Context, files []source.FileRef) ([]batch.Batch, []Rejection, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	candidates := make([]source.FileRef, 0, len(files))
	var rejections []Rejection
	for _, f := range files {
		if !f.Estimate.Usable() {
			rejections = append(rejections, Rejection{Path: f.Path, Stage: TagCombined, Reason: estimateReason(f)})
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return nil, rejections, nil
	}

	ordered := s.priorityOrder(candidates)
	groups := s.formGroups(ordered)

	// Files are tracked arena-style: the ordered list stays immutable
	// and assign maps each file to its batch slot, so rebalancing is
	// array reassignment.
	assign := make([]int, len(ordered))
	slots := 0
	for _, group := range groups {
		for _, pack := range s.packGroup(ordered, group) {
			for _, idx := range pack {
				assign[idx] = slots
			}
			slots++
		}
	}

	s.rebalance(ordered, assign, slots)

	return s.emit(ordered, assign, slots), rejections, nil
}

// priorityOrder sorts candidates for grouping: entry-point style names
// first, then larger files, with scan order as the tiebreak.
func (s *CombinedStrategy) priorityOrder(files []source.FileRef) []source.FileRef {
	ordered := append([]source.FileRef(nil), files...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ei, ej := entryLike(ordered[i].Path), entryLike(ordered[j].Path)
		if ei != ej {
			return ei
		}
		if ordered[i].Tokens() != ordered[j].Tokens() {
			return ordered[i].Tokens() > ordered[j].Tokens()
		}
		return ordered[i].OriginalIndex < ordered[j].OriginalIndex
	})
	return ordered
}

// formGroups seeds a group with each unprocessed file in priority order
// and greedily pulls in the best-related remaining files, bounded by
// the target budget and the file cap.
func (s *CombinedStrategy) formGroups(files []source.FileRef) [][]int {
	used := make([]bool, len(files))
	var groups [][]int

	for i := range files {
		if used[i] {
			continue
		}
		used[i] = true
		members := []int{i}
		total := files[i].Tokens()

		for len(members) < s.cfg.MaxFilesPerBatch {
			best, bestScore := -1, 0
			for j := range files {
				if used[j] || total+files[j].Tokens() > s.cfg.TargetBatchSize {
					continue
				}
				if score := s.relationshipScore(files[i], files[j]); score > bestScore {
					best, bestScore = j, score
				}
			}
			if best < 0 {
				break
			}
			used[best] = true
			members = append(members, best)
			total += files[best].Tokens()
		}
		groups = append(groups, members)
	}
	return groups
}

// relationshipScore is the weighted pairwise affinity of two files.
func (s *CombinedStrategy) relationshipScore(a, b source.FileRef) int {
	w := s.weights
	score := 0
	if filepath.Dir(a.Path) == filepath.Dir(b.Path) {
		score += w.SameDirectory
	}
	if basenameSimilarity(a.Path, b.Path) > w.NameSimilarityMin {
		score += w.SimilarBasename
	}
	if ea := filepath.Ext(a.Path); ea != "" && ea == filepath.Ext(b.Path) {
		score += w.SameExtension
	}
	if crossReferences(a, b) {
		score += w.ImportCrossRef
	}
	if moduleOf(a.Path) == moduleOf(b.Path) {
		score += w.SameModule
	}
	if sizeRatio(a.Tokens(), b.Tokens()) > w.SizeRatioMin {
		score += w.SimilarSize
	}
	return score
}

// packGroup bin-packs one group ascending by size so small files fill
// gaps before a new batch opens.
func (s *CombinedStrategy) packGroup(files []source.FileRef, group []int) [][]int {
	sorted := append([]int(nil), group...)
	sort.SliceStable(sorted, func(a, b int) bool {
		ta, tb := files[sorted[a]].Tokens(), files[sorted[b]].Tokens()
		if ta != tb {
			return ta < tb
		}
		return files[sorted[a]].OriginalIndex < files[sorted[b]].OriginalIndex
	})

	var packs [][]int
	var cur []int
	total := 0
	for _, idx := range sorted {
		t := files[idx].Tokens()
		if len(cur) > 0 && (total+t > s.cfg.MaxBatchSize || len(cur) >= s.cfg.MaxFilesPerBatch) {
			packs = append(packs, cur)
			cur, total = nil, 0
		}
		cur = append(cur, idx)
		total += t
	}
	if len(cur) > 0 {
		packs = append(packs, cur)
	}
	return packs
}

// rebalance runs the two single-threaded repair passes: merge batches
// under the soft floor into their successor, then migrate the smallest
// files out of any batch left over the cap.
func (s *CombinedStrategy) rebalance(files []source.FileRef, assign []int, slots int) {
	totals := make([]int, slots)
	counts := make([]int, slots)
	refresh := func() {
		for i := range totals {
			totals[i], counts[i] = 0, 0
		}
		for idx, slot := range assign {
			totals[slot] += files[idx].Tokens()
			counts[slot]++
		}
	}
	refresh()

	for b := 0; b < slots; b++ {
		if counts[b] == 0 || totals[b] >= s.cfg.MinBatchSize {
			continue
		}
		next := -1
		for n := b + 1; n < slots; n++ {
			if counts[n] > 0 {
				next = n
				break
			}
		}
		if next < 0 {
			break
		}
		if totals[b]+totals[next] > s.cfg.MaxBatchSize || counts[b]+counts[next] > s.cfg.MaxFilesPerBatch {
			continue
		}
		for idx := range assign {
			if assign[idx] == b {
				assign[idx] = next
			}
		}
		refresh()
	}

	for b := 0; b < slots; b++ {
		for counts[b] > 1 && totals[b] > s.cfg.MaxBatchSize {
			idx := smallestIn(files, assign, b)
			if idx < 0 {
				break
			}
			t := files[idx].Tokens()
			dest := -1
			for o := 0; o < slots; o++ {
				if o == b || counts[o] == 0 {
					continue
				}
				if totals[o]+t <= s.cfg.MaxBatchSize && counts[o] < s.cfg.MaxFilesPerBatch {
					dest = o
					break
				}
			}
			if dest < 0 {
				break
			}
			assign[idx] = dest
			totals[b] -= t
			counts[b]--
			totals[dest] += t
			counts[dest]++
		}
	}
}

// smallestIn returns the file with the fewest tokens in a slot.
func smallestIn(files []source.FileRef, assign []int, slot int) int {
	best, bestTokens := -1, 0
	for idx, s := range assign {
		if s != slot {
			continue
		}
		if t := files[idx].Tokens(); best < 0 || t < bestTokens {
			best, bestTokens = idx, t
		}
	}
	return best
}

// emit materializes batches from the assignment array. Members return
// to scan order inside each batch, and batches are ordered by their
// earliest member, so the plan is stable run to run.
func (s *CombinedStrategy) emit(files []source.FileRef, assign []int, slots int) []batch.Batch {
	bySlot := make([][]int, slots)
	for idx, slot := range assign {
		bySlot[slot] = append(bySlot[slot], idx)
	}

	var batches []batch.Batch
	for _, indexes := range bySlot {
		if len(indexes) == 0 {
			continue
		}
		sort.Slice(indexes, func(a, b int) bool {
			return files[indexes[a]].OriginalIndex < files[indexes[b]].OriginalIndex
		})

		members := make([]batch.Member, 0, len(indexes))
		total := 0
		var dirs []string
		seenDir := make(map[string]bool)
		for _, idx := range indexes {
			f := files[idx]
			members = append(members, batch.Member{
				Path:          f.Path,
				Estimate:      f.Estimate,
				SizeBytes:     f.SizeBytes,
				Language:      f.Language,
				OriginalIndex: f.OriginalIndex,
			})
			total += f.Tokens()
			if d := filepath.Dir(f.Path); !seenDir[d] {
				seenDir[d] = true
				dirs = append(dirs, d)
			}
		}

		batches = append(batches, batch.Batch{
			Kind:            batch.Combined,
			StrategyTag:     TagCombined,
			EstimatedTokens: total,
			Members:         members,
			Metadata: batch.Metadata{
				Description: fmt.Sprintf("%d related small files, %d estimated tokens", len(members), total),
				Efficiency:  batch.EfficiencyScore(total, s.cfg.TargetBatchSize),
				Hints: map[string]string{
					"file_count":  strconv.Itoa(len(members)),
					"directories": strings.Join(dirs, ","),
				},
			},
		})
	}

	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].Members[0].OriginalIndex < batches[j].Members[0].OriginalIndex
	})
	for i := range batches {
		batches[i].ID = fmt.Sprintf("combined-%03d", i+1)
	}
	return batches
}

var entryNames = map[string]bool{
	"main":   true,
	"index":  true,
	"app":    true,
	"server": true,
	"cli":    true,
}

func entryLike(path string) bool {
	return entryNames[stem(path)]
}

// stem returns the lowercased basename with extensions peeled off, the
// same reduction summaries apply to dependency names.
func stem(path string) string {
	name := strings.ToLower(filepath.Base(path))
	for {
		ext := filepath.Ext(name)
		if ext == "" || ext == name {
			return name
		}
		name = strings.TrimSuffix(name, ext)
	}
}

// basenameSimilarity is a normalized similarity ratio over two stems.
func basenameSimilarity(a, b string) float64 {
	sa, sb := stem(a), stem(b)
	if sa == "" || sb == "" {
		return 0
	}
	m := difflib.NewMatcher(strings.Split(sa, ""), strings.Split(sb, ""))
	return m.Ratio()
}

// moduleOf treats the directory's parent as the owning module.
func moduleOf(path string) string {
	return filepath.Dir(filepath.Dir(path))
}

func crossReferences(a, b source.FileRef) bool {
	return dependsOn(a, b) || dependsOn(b, a)
}

// dependsOn reports whether a's normalized dependencies name b.
func dependsOn(a, b source.FileRef) bool {
	if a.Summary == nil {
		return false
	}
	target := stem(b.Path)
	for _, dep := range a.Summary.Dependencies {
		if strings.EqualFold(dep, target) {
			return true
		}
	}
	return false
}

// sizeRatio is the smaller over the larger of two token counts.
func sizeRatio(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return float64(a) / float64(b)
}
