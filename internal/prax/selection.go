package prax

import (
	"slices"
	"strings"
)

// SelectionKind enumerates the logical selections a viewer can make.
type SelectionKind int

const (
	// SelectAllItems selects every item. It overrides every other selection.
	SelectAllItems SelectionKind = iota
	// SelectUnassigned selects items that belong to no album.
	SelectUnassigned
	// SelectCollection selects the items of one album.
	SelectCollection
)

// Selection is one member of a selection set.
type Selection struct {
	Kind SelectionKind
	ID   string // album identifier, for SelectCollection only
}

// AllItems selects every item.
func AllItems() Selection { return Selection{Kind: SelectAllItems} }

// Unassigned selects items that belong to no album.
func Unassigned() Selection { return Selection{Kind: SelectUnassigned} }

// CollectionSelection selects the items of album id.
func CollectionSelection(id string) Selection { return Selection{Kind: SelectCollection, ID: id} }

const (
	tokenAll         = "all"
	tokenNone        = "none"
	tokenAlbumPrefix = "album:"

	keyAllItems   = "ALL_PHOTOS"
	keyUnassigned = "NO_ALBUMS"
)

// Token is the selection's form in a serialized payload.
func (s Selection) Token() string {
	switch s.Kind {
	case SelectAllItems:
		return tokenAll
	case SelectUnassigned:
		return tokenNone
	default:
		return tokenAlbumPrefix + s.ID
	}
}

func (s Selection) resetID() string {
	switch s.Kind {
	case SelectAllItems:
		return keyAllItems
	case SelectUnassigned:
		return keyUnassigned
	default:
		return s.ID
	}
}

// SelectionSet is a normalized set of selections: no duplicates, sorted by
// token, and reduced to {AllItems} whenever AllItems is a member.
type SelectionSet []Selection

// NewSelectionSet normalizes sels into a set.
func NewSelectionSet(sels ...Selection) SelectionSet {
	if len(sels) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(sels))
	set := make(SelectionSet, 0, len(sels))
	for _, s := range sels {
		if s.Kind == SelectAllItems {
			return SelectionSet{AllItems()}
		}
		if s.Kind == SelectCollection && s.ID == "" {
			continue
		}
		tok := s.Token()
		if seen[tok] {
			continue
		}
		seen[tok] = true
		set = append(set, s)
	}
	if len(set) == 0 {
		return nil
	}
	slices.SortFunc(set, func(a, b Selection) int { return strings.Compare(a.Token(), b.Token()) })
	return set
}

// IsEmpty reports whether nothing is selected.
func (s SelectionSet) IsEmpty() bool { return len(s) == 0 }

// HasAllItems reports whether the set selects every item.
func (s SelectionSet) HasAllItems() bool {
	return len(s) == 1 && s[0].Kind == SelectAllItems
}

// Key identifies the set for staleness checks: reset identifiers sorted and
// joined with "|".
func (s SelectionSet) Key() string {
	ids := make([]string, len(s))
	for i, sel := range s {
		ids[i] = sel.resetID()
	}
	slices.Sort(ids)
	return strings.Join(ids, "|")
}

// EncodeSelection serializes a set as sorted, comma-joined tokens.
func EncodeSelection(set SelectionSet) string {
	set = NewSelectionSet(set...)
	toks := make([]string, len(set))
	for i, s := range set {
		toks[i] = s.Token()
	}
	slices.Sort(toks)
	return strings.Join(toks, ",")
}

// DecodeSelection parses a payload produced by EncodeSelection. Unknown tokens
// are dropped; an empty result decodes to nil, meaning no selection.
func DecodeSelection(payload string) SelectionSet {
	var sels []Selection
	for _, tok := range strings.Split(payload, ",") {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == tokenAll:
			sels = append(sels, AllItems())
		case tok == tokenNone:
			sels = append(sels, Unassigned())
		case strings.HasPrefix(tok, tokenAlbumPrefix) && len(tok) > len(tokenAlbumPrefix):
			sels = append(sels, CollectionSelection(strings.TrimPrefix(tok, tokenAlbumPrefix)))
		}
	}
	return NewSelectionSet(sels...)
}
