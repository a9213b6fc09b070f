// Package trie implements the prefix tree backing autocomplete over the
// index vocabulary.
package trie

import "sync"

type TrieNode struct {
	Children    map[rune]*TrieNode
	ChildrenArr []rune
	IsEnd       bool
}

type Trie struct {
	Root *TrieNode
	mu   sync.RWMutex
}

func NewTrie() *Trie {
	return &Trie{Root: &TrieNode{Children: make(map[rune]*TrieNode)}}
}

func (t *Trie) Insert(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	node := t.Root
	for _, ch := range key {
		if _, exists := node.Children[ch]; !exists {
			node.Children[ch] = &TrieNode{Children: make(map[rune]*TrieNode)}
			node.ChildrenArr = append(node.ChildrenArr, ch)
		}
		node = node.Children[ch]
	}
	node.IsEnd = true
}

// SearchPrefix returns up to limit complete keys starting with prefix,
// in breadth-first insertion order.
func (t *Trie) SearchPrefix(prefix string, limit int) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node := t.Root
	for _, ch := range prefix {
		if _, exists := node.Children[ch]; !exists {
			return nil
		}
		node = node.Children[ch]
	}

	var results []string
	t.collectWords(node, prefix, &results, limit)
	return results
}

func (t *Trie) collectWords(root *TrieNode, prefix string, results *[]string, limit int) {
	type entry struct {
		node   *TrieNode
		prefix string
	}

	queue := []entry{{root, prefix}}
	for len(queue) > 0 && len(*results) < limit {
		curr := queue[0]
		queue = queue[1:]

		if curr.node.IsEnd {
			*results = append(*results, curr.prefix)
			if len(*results) >= limit {
				break
			}
		}

		// enqueue children in insertion order
		for _, ch := range curr.node.ChildrenArr {
			child := curr.node.Children[ch]
			queue = append(queue, entry{
				node:   child,
				prefix: curr.prefix + string(ch),
			})
		}
	}
}

// Remove deletes key from the trie. Unknown keys are a no-op.
func (t *Trie) Remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	runes := []rune(key)
	node := t.Root
	for _, ch := range runes {
		child, ok := node.Children[ch]
		if !ok {
			return
		}
		node = child
	}
	if !node.IsEnd {
		return
	}

	t.removeNode(t.Root, runes, 0)
}

// removeNode walks down to depth, unmarks or deletes, and returns true
// if the caller should delete its reference.
func (t *Trie) removeNode(node *TrieNode, runes []rune, depth int) bool {
	if depth == len(runes) {
		node.IsEnd = false
	} else {
		ch := runes[depth]
		child := node.Children[ch]
		if shouldDelete := t.removeNode(child, runes, depth+1); shouldDelete {
			delete(node.Children, ch)
			for i, c := range node.ChildrenArr {
				if c == ch {
					node.ChildrenArr = append(node.ChildrenArr[:i], node.ChildrenArr[i+1:]...)
					break
				}
			}
		}
	}
	return !node.IsEnd && len(node.Children) == 0
}
