package buffer

// AddPrefix inserts marker followed by parts at the front of the buffer. If
// the content already starts with marker nothing happens, so a report that
// is retried through a second writer is prefixed only once. Content pushed
// past the capacity is dropped and the buffer is marked truncated.
func (b *Raw) AddPrefix(marker string, parts ...string) {
	if marker != "" && b.HasPrefix(marker) {
		return
	}
	plen := len(marker)
	for _, p := range parts {
		plen += len(p)
	}
	if plen == 0 {
		return
	}

	vis := b.visible()
	wasTruncated := b.Truncated()
	content := b.used
	if b.cutAt >= 0 {
		content = b.cutAt
	}
	lead := min(plen, vis)
	keep := max(0, min(content, vis-lead))

	copy(b.data[lead:], b.data[:keep])
	pos := copy(b.data[:lead], marker)
	for _, p := range parts {
		if pos >= lead {
			break
		}
		pos += copy(b.data[pos:lead], p)
	}
	b.used = lead + keep
	b.data[b.used] = 0

	if wasTruncated || keep < content || lead < plen {
		b.dropped += content - keep + plen - lead
		b.status |= Truncated
		b.cutAt = -1
		b.placeCut(false)
	}
}

// AddPrefixLines inserts the concatenated parts at the start of every line
// that has content: at offset 0 and after each newline that is followed by
// anything but another newline. Blank lines and an empty buffer stay as they
// are.
func (b *Raw) AddPrefixLines(parts ...string) {
	plen := 0
	for _, p := range parts {
		plen += len(p)
	}
	if plen == 0 || b.used == 0 {
		return
	}

	lines := 0
	for i := 0; i < b.used; i++ {
		if b.lineStart(i) {
			lines++
		}
	}
	if lines == 0 {
		return
	}

	if b.Truncated() || b.used+lines*plen > b.visible() {
		b.rebuildWithPrefix(parts)
		return
	}

	// Expand in place from the end so no byte is overwritten before it moves.
	r := b.used
	w := b.used + lines*plen
	b.used = w
	for start := r - 1; start >= 0; start-- {
		if !b.lineStart(start) {
			continue
		}
		w -= r - start
		copy(b.data[w:], b.data[start:r])
		w -= plen
		off := w
		for _, p := range parts {
			off += copy(b.data[off:], p)
		}
		r = start
	}
	b.data[b.used] = 0
}

// lineStart reports whether a prefix goes before the byte at i.
func (b *Raw) lineStart(i int) bool {
	return b.data[i] != '\n' && (i == 0 || b.data[i-1] == '\n')
}

// rebuildWithPrefix is the overflow path of AddPrefixLines: the original
// content is copied aside and replayed through the bounded appends.
func (b *Raw) rebuildWithPrefix(parts []string) {
	content := b.used
	if b.cutAt >= 0 {
		content = b.cutAt
	}
	orig := make([]byte, content)
	copy(orig, b.data[:content])
	wasTruncated := b.Truncated()
	nul := b.HasNUL()

	b.Reset()
	if nul {
		b.status |= HasNUL
	}
	sol := true
	for _, c := range orig {
		if sol && c != '\n' {
			for _, p := range parts {
				b.AppendString(p)
			}
		}
		b.AppendByte(c)
		sol = c == '\n'
	}
	if wasTruncated && !b.Truncated() {
		b.status |= Truncated
		b.placeCut(false)
	}
}
