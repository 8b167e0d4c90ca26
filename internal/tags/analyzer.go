// Package tags builds the vault's tag vocabulary and scores suggestion
// candidates against note content. Suggestions only ever come from tags
// already present in the vault, which keeps the vocabulary from fragmenting.
package tags

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/starford/muninn/internal/parser"
	"github.com/starford/muninn/internal/storage"
)

var (
	nonWordChars      = regexp.MustCompile(`[^\w\s-]`)
	invalidTitleChars = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns        = regexp.MustCompile(`-+`)
)

// Vocabulary is an immutable snapshot of every distinct tag in the vault.
type Vocabulary struct {
	tags map[string]struct{}
}

// Has reports whether tag is part of the snapshot.
func (v *Vocabulary) Has(tag string) bool {
	_, ok := v.tags[tag]
	return ok
}

// Len returns the number of distinct tags.
func (v *Vocabulary) Len() int { return len(v.tags) }

// Tags returns the snapshot's tags in sorted order.
func (v *Vocabulary) Tags() []string {
	out := make([]string, 0, len(v.tags))
	for t := range v.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Stats summarizes a vocabulary snapshot.
type Stats struct {
	TotalTags     int     `json:"total_tags"`
	AvgTagLength  float64 `json:"avg_tag_length"`
	MultiWordTags int     `json:"multi_word_tags"`
}

// Stats reports tag count, mean tag length (one decimal), and the number of
// hyphenated tags. All zeros on an empty vocabulary.
func (v *Vocabulary) Stats() Stats {
	if len(v.tags) == 0 {
		return Stats{}
	}
	chars, multi := 0, 0
	for t := range v.tags {
		chars += len(t)
		if strings.Contains(t, "-") {
			multi++
		}
	}
	avg := math.Round(float64(chars)/float64(len(v.tags))*10) / 10
	return Stats{TotalTags: len(v.tags), AvgTagLength: avg, MultiWordTags: multi}
}

// Suggest scores every vocabulary tag against the content and title and
// returns up to max tag names, best first. Equal scores break ties
// alphabetically so results are deterministic. An empty vocabulary or a
// non-positive max yields an empty result.
func (v *Vocabulary) Suggest(content, title string, max int) []string {
	if len(v.tags) == 0 || max <= 0 {
		return nil
	}

	words := tokenize(content)
	titleNorm := normalizeTitle(title)

	type scored struct {
		tag   string
		score int
	}
	var candidates []scored
	for tag := range v.tags {
		if sc := scoreTag(tag, words, titleNorm); sc > 0 {
			candidates = append(candidates, scored{tag: tag, score: sc})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].tag < candidates[j].tag
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.tag
	}
	return out
}

// scoreTag ranks one candidate tag. The title branch is exclusive (exact
// match, then substring, then per-part word matches); content words score
// additively. The float total truncates to an integer.
func scoreTag(tag string, contentWords []string, titleNorm string) int {
	var score float64
	parts := strings.Split(tag, "-")

	switch {
	case tag == titleNorm:
		score += 10
	case strings.Contains(titleNorm, tag) || strings.Contains(tag, titleNorm):
		score += 5
	default:
		titleWords := strings.Split(titleNorm, "-")
		for _, part := range parts {
			if slices.Contains(titleWords, part) {
				score += 3
			}
		}
	}

	for _, word := range contentWords {
		if word == tag || slices.Contains(parts, word) {
			score++
		} else if strings.Contains(tag, word) {
			score += 0.5
		}
	}

	return int(score)
}

// tokenize lowercases content and splits it into words, replacing
// punctuation other than hyphens with spaces.
func tokenize(content string) []string {
	text := strings.ToLower(content)
	text = nonWordChars.ReplaceAllString(text, " ")
	return strings.Fields(text)
}

// normalizeTitle reshapes a title into tag form: lowercase, spaces to
// hyphens, stray characters dropped, hyphen runs collapsed.
func normalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = strings.ReplaceAll(t, " ", "-")
	t = invalidTitleChars.ReplaceAllString(t, "")
	t = hyphenRuns.ReplaceAllString(t, "-")
	return strings.Trim(t, "-")
}

// Analyzer owns the current vocabulary snapshot and rebuilds it from the
// vault on demand. Snapshot swaps are atomic; callers keep whatever
// snapshot they fetched, so a refresh never changes results mid-call.
type Analyzer struct {
	files  storage.Provider
	logger *slog.Logger
	vocab  atomic.Pointer[Vocabulary]
}

// NewAnalyzer creates an Analyzer with an empty vocabulary. Call Refresh to
// populate it from the vault.
func NewAnalyzer(files storage.Provider, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{files: files, logger: logger}
	a.vocab.Store(&Vocabulary{tags: map[string]struct{}{}})
	return a
}

// Vocabulary returns the current snapshot.
func (a *Analyzer) Vocabulary() *Vocabulary {
	return a.vocab.Load()
}

// Refresh walks every note file in the vault, collects frontmatter tags,
// and swaps in a fresh snapshot. Files that fail to parse are skipped with
// a warning and do not abort the scan.
func (a *Analyzer) Refresh(_ context.Context) (*Vocabulary, error) {
	paths, err := a.files.Walk("")
	if err != nil {
		return nil, err
	}

	found := make(map[string]struct{})
	scanned, failed := 0, 0
	for _, p := range paths {
		scanned++
		data, err := a.files.Read(p)
		if err != nil {
			failed++
			a.logger.Warn("vocabulary scan: unreadable file",
				slog.String("path", p),
				slog.String("error", err.Error()))
			continue
		}
		res, err := parser.Parse(data)
		if err != nil {
			failed++
			a.logger.Warn("vocabulary scan: unparseable file",
				slog.String("path", p),
				slog.String("error", err.Error()))
			continue
		}
		for _, t := range res.Frontmatter.Tags {
			if t != "" {
				found[t] = struct{}{}
			}
		}
	}

	vocab := &Vocabulary{tags: found}
	a.vocab.Store(vocab)
	a.logger.Debug("vocabulary rebuilt",
		slog.Int("files", scanned),
		slog.Int("errors", failed),
		slog.Int("tags", len(found)))
	return vocab, nil
}
