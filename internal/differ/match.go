package differ

import (
	"sort"

	"github.com/bearcove/hotmeal/internal/arena"
)

// matching is the bipartite correspondence the top-down and bottom-up
// passes build between old-tree and new-tree nodes.
type matching struct {
	aToB map[arena.NodeId]arena.NodeId
	bToA map[arena.NodeId]arena.NodeId
}

func newMatching() *matching {
	return &matching{aToB: make(map[arena.NodeId]arena.NodeId), bToA: make(map[arena.NodeId]arena.NodeId)}
}

func (m *matching) add(a, b arena.NodeId) {
	m.aToB[a] = b
	m.bToA[b] = a
}

func (m *matching) matchedA(a arena.NodeId) bool { _, ok := m.aToB[a]; return ok }
func (m *matching) matchedB(b arena.NodeId) bool { _, ok := m.bToA[b]; return ok }

// topDownMatch implements the hash-matching phase (§4.3.2): subtrees of at
// least minHeight whose structural hashes are equal are matched wholesale,
// including every corresponding descendant pair, on the assumption that
// equal structural hash means isomorphic content (a SHA-256-derived
// signature makes an accidental collision practically impossible).
func topDownMatch(aArena, bArena *arena.Arena, aRoot, bRoot arena.NodeId, aInfo, bInfo map[arena.NodeId]*info, m *matching, minHeight int) {
	aByHash := groupByHash(aArena, aRoot, aInfo, minHeight)
	bByHash := groupByHash(bArena, bRoot, bInfo, minHeight)

	hashes := make([]Signature, 0, len(aByHash))
	for h := range aByHash {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	for _, h := range hashes {
		bNodes, ok := bByHash[h]
		if !ok {
			continue
		}
		aNodes := aByHash[h]
		bi := 0
		for _, an := range aNodes {
			if m.matchedA(an) {
				continue
			}
			for bi < len(bNodes) && m.matchedB(bNodes[bi]) {
				bi++
			}
			if bi >= len(bNodes) {
				break
			}
			bn := bNodes[bi]
			bi++
			matchSubtree(aArena, bArena, an, bn, m)
		}
	}
}

// groupByHash walks a tree in preorder (document order) and buckets nodes
// of height >= minHeight by structural hash, preserving document order
// within each bucket so later pairing is deterministic. Leaves (text and
// comment nodes) are bucketed regardless of height: a leaf's structural
// hash already is its exact content hash, with no substructure that could
// make an equal hash a coincidence, so the height filter — which exists to
// avoid matching small, frequently-recurring internal shapes — doesn't
// apply to them. Without this, a root-level leaf whose content changed, or
// a pair of siblings that swapped content, would have no matchable
// descendant for bottom-up matching to anchor on.
func groupByHash(a *arena.Arena, root arena.NodeId, infos map[arena.NodeId]*info, minHeight int) map[Signature][]arena.NodeId {
	out := make(map[Signature][]arena.NodeId)
	var walk func(id arena.NodeId)
	walk = func(id arena.NodeId) {
		inf := infos[id]
		k := a.Node(id).Kind
		isLeaf := k == arena.KindText || k == arena.KindComment
		if inf.height >= minHeight || isLeaf {
			out[inf.structHash] = append(out[inf.structHash], id)
		}
		for _, c := range a.Children(id) {
			walk(c)
		}
	}
	for _, child := range a.Children(root) {
		walk(child)
	}
	return out
}

// matchSubtree records an and bn as matched, then recurses pairwise over
// their children (equal structural hash guarantees equal child count).
func matchSubtree(aArena, bArena *arena.Arena, an, bn arena.NodeId, m *matching) {
	m.add(an, bn)
	ac := aArena.Children(an)
	bc := bArena.Children(bn)
	n := len(ac)
	if len(bc) < n {
		n = len(bc)
	}
	for i := 0; i < n; i++ {
		matchSubtree(aArena, bArena, ac[i], bc[i], m)
	}
}

// bottomUpMatch implements the dice-coefficient phase (§4.3.3): for every
// still-unmatched element in A, it gathers candidate partners in B from the
// ancestors of already-matched descendants' partners, and accepts the
// highest-dice candidate at or above simThreshold. Ties keep whichever
// candidate candidatesFor listed first; that order is not B's document
// order, so the leftmost candidate does not necessarily win a tie.
func bottomUpMatch(aArena, bArena *arena.Arena, aRoot arena.NodeId, aInfo, bInfo map[arena.NodeId]*info, m *matching, simThreshold float64) {
	var walk func(id arena.NodeId)
	walk = func(id arena.NodeId) {
		for _, c := range aArena.Children(id) {
			walk(c)
		}
		if aArena.Node(id).Kind != arena.KindElement {
			return
		}
		if m.matchedA(id) {
			return
		}
		candidates := candidatesFor(aArena, bArena, m, id)
		bestDice := -1.0
		best := arena.NoNode
		for _, cand := range candidates {
			if m.matchedB(cand) {
				continue
			}
			if !sameTag(aArena, bArena, id, cand) {
				continue
			}
			d := dice(aArena, bArena, m, id, cand)
			if d > bestDice {
				bestDice = d
				best = cand
			}
		}
		if best != arena.NoNode && bestDice >= simThreshold {
			m.add(id, best)
		}
	}
	for _, child := range aArena.Children(aRoot) {
		walk(child)
	}
}

func sameTag(aArena, bArena *arena.Arena, a, b arena.NodeId) bool {
	return aArena.Node(a).Tag.Equal(bArena.Node(b).Tag)
}

// candidatesFor collects B-side elements that could plausibly be id's
// partner: every ancestor (up to the root) of the partner of any already-
// matched descendant of id.
func candidatesFor(aArena, bArena *arena.Arena, m *matching, id arena.NodeId) []arena.NodeId {
	seen := make(map[arena.NodeId]bool)
	var out []arena.NodeId
	var walkDesc func(n arena.NodeId)
	walkDesc = func(n arena.NodeId) {
		for _, c := range aArena.Children(n) {
			if p, ok := m.aToB[c]; ok {
				for anc := p; anc != arena.NoNode; anc = bArena.Node(anc).Parent {
					if !seen[anc] {
						seen[anc] = true
						out = append(out, anc)
					}
				}
			}
			walkDesc(c)
		}
	}
	walkDesc(id)
	return out
}

// dice computes the Dice coefficient of id (in A) and cand (in B): twice
// the number of id's descendants whose partner is a descendant of cand,
// over the sum of both subtrees' descendant counts.
func dice(aArena, bArena *arena.Arena, m *matching, id, cand arena.NodeId) float64 {
	aDesc := subtreeOf(aArena, id)
	bDescSet := make(map[arena.NodeId]bool)
	for _, d := range subtreeOf(bArena, cand) {
		bDescSet[d] = true
	}
	common := 0
	for _, d := range aDesc {
		if p, ok := m.aToB[d]; ok && bDescSet[p] {
			common++
		}
	}
	denom := len(aDesc) + len(bDescSet)
	if denom == 0 {
		return 0
	}
	return 2 * float64(common) / float64(denom)
}

func subtreeOf(a *arena.Arena, id arena.NodeId) []arena.NodeId {
	var out []arena.NodeId
	var walk func(n arena.NodeId)
	walk = func(n arena.NodeId) {
		for _, c := range a.Children(n) {
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}
