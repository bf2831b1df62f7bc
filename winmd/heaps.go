package winmd

// stringHeap is the #Strings heap: null-terminated UTF-8 entries with a
// leading empty string at offset 0. Entries are deduplicated.
type stringHeap struct {
	buf []byte
	idx map[string]uint32
}

func newStringHeap() *stringHeap {
	return &stringHeap{
		buf: []byte{0},
		idx: map[string]uint32{"": 0},
	}
}

func (h *stringHeap) Add(s string) uint32 {
	if off, ok := h.idx[s]; ok {
		return off
	}
	off := uint32(len(h.buf))
	h.buf = append(h.buf, s...)
	h.buf = append(h.buf, 0)
	h.idx[s] = off
	return off
}

func (h *stringHeap) Len() int {
	return len(h.buf)
}

// blobHeap is the #Blob heap: length-prefixed entries with a leading
// empty blob at offset 0. The length prefix uses the compressed unsigned
// integer encoding.
type blobHeap struct {
	buf []byte
	idx map[string]uint32
}

func newBlobHeap() *blobHeap {
	return &blobHeap{
		buf: []byte{0},
		idx: map[string]uint32{"": 0},
	}
}

func (h *blobHeap) Add(b []byte) uint32 {
	if off, ok := h.idx[string(b)]; ok {
		return off
	}
	off := uint32(len(h.buf))
	n := uint32(len(b))
	switch {
	case n < 0x80:
		h.buf = append(h.buf, byte(n))
	case n < 0x4000:
		h.buf = append(h.buf, byte(n>>8)|0x80, byte(n))
	default:
		h.buf = append(h.buf, byte(n>>24)|0xC0, byte(n>>16), byte(n>>8), byte(n))
	}
	h.buf = append(h.buf, b...)
	h.idx[string(b)] = off
	return off
}

func (h *blobHeap) Len() int {
	return len(h.buf)
}

// guidHeap is the #GUID heap: raw 16-byte entries indexed 1-based.
type guidHeap struct {
	entries [][16]byte
	idx     map[[16]byte]uint32
}

func newGUIDHeap() *guidHeap {
	return &guidHeap{idx: make(map[[16]byte]uint32)}
}

func (h *guidHeap) Add(g [16]byte) uint32 {
	if i, ok := h.idx[g]; ok {
		return i
	}
	h.entries = append(h.entries, g)
	i := uint32(len(h.entries))
	h.idx[g] = i
	return i
}

func (h *guidHeap) Len() int {
	return len(h.entries) * 16
}

func (h *guidHeap) bytes() []byte {
	out := make([]byte, 0, h.Len())
	for _, g := range h.entries {
		out = append(out, g[:]...)
	}
	return out
}
