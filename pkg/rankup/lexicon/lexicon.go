// Package lexicon provides the thesaurus used to add synonym sets to the
// TextRank graph.
package lexicon

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Thesaurus supplies synonyms for a term.
type Thesaurus interface {
	Synonyms(term string) []string
}

// Grouper is implemented by thesauri that organise synonyms into named
// groups (synsets). A term may belong to several groups.
type Grouper interface {
	Groups(term string) []string
}

// Lexicon stores synonym groups:
//   - canonical -> all members (canonical first)
//   - member -> every canonical it belongs to
//
// Multi-word members ("neural network") are allowed.
type Lexicon struct {
	groups  map[string][]string
	reverse map[string][]string
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		groups:  make(map[string][]string),
		reverse: make(map[string][]string),
	}
}

// LoadFromYAML loads synonym groups from a YAML file.
//
// Expected format:
//
//	synonyms:
//	  - canonical: car
//	    variants: [automobile, auto]
//	  - canonical: neural network
//	    variants: [neural net, ann]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config struct {
		Synonyms []struct {
			Canonical string   `yaml:"canonical"`
			Variants  []string `yaml:"variants"`
		} `yaml:"synonyms"`
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := New()
	for _, entry := range config.Synonyms {
		lex.AddSynonymGroup(entry.Canonical, entry.Variants)
	}
	return lex, nil
}

// AddSynonymGroup adds a group with a canonical form and its variants.
// Adding an existing canonical replaces the group.
func (l *Lexicon) AddSynonymGroup(canonical string, variants []string) {
	canonical = normalize(canonical)
	if canonical == "" {
		return
	}

	if old, exists := l.groups[canonical]; exists {
		for _, v := range old {
			l.reverse[v] = remove(l.reverse[v], canonical)
			if len(l.reverse[v]) == 0 {
				delete(l.reverse, v)
			}
		}
	}

	members := []string{canonical}
	seen := map[string]bool{canonical: true}
	for _, v := range variants {
		v = normalize(v)
		if v != "" && !seen[v] {
			members = append(members, v)
			seen[v] = true
		}
	}

	l.groups[canonical] = members
	for _, v := range members {
		l.reverse[v] = append(l.reverse[v], canonical)
		sort.Strings(l.reverse[v])
	}
}

// Groups returns the canonical names of every group term belongs to.
func (l *Lexicon) Groups(term string) []string {
	return l.reverse[normalize(term)]
}

// Synonyms returns every other member of the groups term belongs to,
// sorted and without duplicates.
func (l *Lexicon) Synonyms(term string) []string {
	term = normalize(term)
	seen := map[string]bool{term: true}
	var out []string
	for _, g := range l.reverse[term] {
		for _, v := range l.groups[g] {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}

// HasSynonyms returns true if the term belongs to any group.
func (l *Lexicon) HasSynonyms(term string) bool {
	_, ok := l.reverse[normalize(term)]
	return ok
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() LexiconStats {
	total := 0
	for _, members := range l.groups {
		total += len(members)
	}
	return LexiconStats{SynonymGroups: len(l.groups), TotalVariants: total}
}

// LexiconStats holds statistics about lexicon contents.
type LexiconStats struct {
	SynonymGroups int // Number of canonical forms (synonym groups)
	TotalVariants int // Total number of members across all groups
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func remove(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
