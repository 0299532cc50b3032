// Package suggest generates autocomplete candidates: prefix completions,
// typo corrections, related terms, and trending queries.
package suggest

import "sort"

// trieNode is one node of the completion trie.
type trieNode struct {
	children map[rune]*trieNode
	terminal bool
}

// trie is a prefix tree over completion phrases. It is built once per index
// rebuild and read-only afterwards, so no locking is needed.
type trie struct {
	root *trieNode
}

func newTrie() *trie {
	return &trie{root: &trieNode{children: make(map[rune]*trieNode)}}
}

// insert adds a phrase to the trie.
func (t *trie) insert(phrase string) {
	node := t.root
	for _, r := range phrase {
		child, ok := node.children[r]
		if !ok {
			child = &trieNode{children: make(map[rune]*trieNode)}
			node.children[r] = child
		}
		node = child
	}
	node.terminal = true
}

// withPrefix returns up to max phrases starting with prefix, in
// lexicographic order for determinism.
func (t *trie) withPrefix(prefix string, max int) []string {
	if max <= 0 {
		return nil
	}
	node := t.root
	for _, r := range prefix {
		child, ok := node.children[r]
		if !ok {
			return nil
		}
		node = child
	}

	var results []string
	t.collect(node, prefix, max, &results)
	return results
}

// collect walks the subtree depth-first with sorted children, appending
// terminal phrases until max is reached.
func (t *trie) collect(node *trieNode, prefix string, max int, results *[]string) {
	if len(*results) >= max {
		return
	}
	if node.terminal {
		*results = append(*results, prefix)
	}
	runes := make([]rune, 0, len(node.children))
	for r := range node.children {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	for _, r := range runes {
		if len(*results) >= max {
			return
		}
		t.collect(node.children[r], prefix+string(r), max, results)
	}
}
