package board

// Subscribe registers fn to run after every published mutation. The returned
// func removes it.
func (b *Board) Subscribe(fn func()) (cancel func()) {
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.subMu.Unlock()
	return func() {
		b.subMu.Lock()
		delete(b.subs, id)
		b.subMu.Unlock()
	}
}

// Refresh notifies subscribers without mutating (used after RenameGroup).
func (b *Board) Refresh() { b.notify() }

func (b *Board) notify() {
	b.subMu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
