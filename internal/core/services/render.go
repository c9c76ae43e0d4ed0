package services

import (
	"sort"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/geometry"
)

// RenderText splits text into plain and annotated runs.
//
// Annotations are ordered by start, ties kept in list order, and painted
// one after the other, so where ranges overlap the later one owns the
// characters. Adjacent characters with the same owner form one run.
// Stored offsets are clamped to the buffer, never trusted.
func RenderText(text string, annotations []domain.Annotation) []domain.Run {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	list := append([]domain.Annotation(nil), annotations...)
	owner := paintOwners(n, list)

	var runs []domain.Run
	start := 0
	for i := 1; i <= n; i++ {
		if i < n && owner[i] == owner[start] {
			continue
		}
		run := domain.Run{Start: start, End: i, Text: string(runes[start:i])}
		if owner[start] >= 0 {
			run.Annotation = &list[owner[start]]
		}
		runs = append(runs, run)
		start = i
	}
	return runs
}

// paintOwners returns, for every character, the index into list of the
// annotation painted over it, or -1.
func paintOwners(n int, list []domain.Annotation) []int {
	order := make([]int, len(list))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, _ := geometry.ClampRange(list[order[a]].Start, list[order[a]].End, n)
		sb, _ := geometry.ClampRange(list[order[b]].Start, list[order[b]].End, n)
		return sa < sb
	})

	owner := make([]int, n)
	for i := range owner {
		owner[i] = -1
	}
	for _, idx := range order {
		s, e := geometry.ClampRange(list[idx].Start, list[idx].End, n)
		for i := s; i < e; i++ {
			owner[i] = idx
		}
	}
	return owner
}

// PlainMarkup writes runs as text with annotated runs bracketed:
// "Yo [tiene → tengo|grammar] un gato". The replacement and the kind follow
// the last fragment of their annotation, so an annotation split by an
// overlap shows them once. An annotation without a kind has no tag.
func PlainMarkup(runs []domain.Run) string {
	var sb strings.Builder
	for _, run := range runs {
		if !run.Styled() {
			sb.WriteString(run.Text)
			continue
		}
		sb.WriteString("[")
		sb.WriteString(run.Text)
		if a := run.Annotation; run.End == a.End {
			if a.Replacement != "" {
				sb.WriteString(" → ")
				sb.WriteString(a.Replacement)
			}
			if a.Kind != "" {
				sb.WriteString("|")
				sb.WriteString(a.Kind.String())
			}
		}
		sb.WriteString("]")
	}
	return sb.String()
}
