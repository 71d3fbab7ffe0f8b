package differ

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/bearcove/hotmeal/internal/arena"
)

// Signature is a deterministic 64-bit digest. It is derived from SHA-256
// rather than a seeded hash (hash/maphash, Go's map iteration order) so
// that two runs of the differ over byte-identical input always produce the
// same signatures — required for diff determinism (§8, property 3).
type Signature uint64

func combine(chunks ...[]byte) Signature {
	h := sha256.New()
	for _, c := range chunks {
		h.Write(c)
	}
	sum := h.Sum(nil)
	return Signature(binary.BigEndian.Uint64(sum[:8]))
}

func u8(b byte) []byte { return []byte{b} }

// kindSignature digests the "shape" of a single node — its variant, tag or
// text payload, and (for elements) its attributes in document order. Two
// nodes with equal kindSignature are interchangeable for matching purposes;
// attribute order is included, so a mere permutation of the same attribute
// set does not compare equal here and instead surfaces later as a property
// diff (see diffAttrs).
func kindSignature(a *arena.Arena, id arena.NodeId) Signature {
	n := a.Node(id)
	switch n.Kind {
	case arena.KindElement:
		chunks := [][]byte{u8(byte(n.Kind)), []byte(n.Tag.NS.String()), []byte(n.Tag.String())}
		for _, at := range n.Attrs {
			chunks = append(chunks, []byte(at.Name.NS.String()), []byte(at.Name.String()), []byte(at.Value.String()))
		}
		return combine(chunks...)
	case arena.KindText, arena.KindComment:
		return combine(u8(byte(n.Kind)), []byte(n.Text.String()))
	case arena.KindDoctype:
		return combine(u8(byte(n.Kind)), []byte(n.DoctypeName.String()), []byte(n.PublicID.String()), []byte(n.SystemID.String()))
	case arena.KindPI:
		return combine(u8(byte(n.Kind)), []byte(n.PITarget.String()), []byte(n.PIData.String()))
	default:
		return combine(u8(byte(n.Kind)))
	}
}

// info is the per-node bookkeeping the matcher needs, computed once per
// tree in a single postorder pass.
type info struct {
	kindSig     Signature
	structHash  Signature
	height      int // longest path to a leaf, leaf == 0
	descendants int // count of nodes strictly below this one
}

// buildInfo computes info for every node reachable from doc.Root.
func buildInfo(a *arena.Arena, root arena.NodeId) map[arena.NodeId]*info {
	out := make(map[arena.NodeId]*info, a.Len())
	var walk func(id arena.NodeId) *info
	walk = func(id arena.NodeId) *info {
		ks := kindSignature(a, id)
		chunks := [][]byte{sigBytes(ks)}
		height := 0
		descendants := 0
		for _, c := range a.Children(id) {
			ci := walk(c)
			chunks = append(chunks, sigBytes(ci.structHash))
			if ci.height+1 > height {
				height = ci.height + 1
			}
			descendants += ci.descendants + 1
		}
		inf := &info{kindSig: ks, structHash: combine(chunks...), height: height, descendants: descendants}
		out[id] = inf
		return inf
	}
	walk(root)
	return out
}

func sigBytes(s Signature) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(s))
	return b[:]
}
