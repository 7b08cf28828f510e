package bind_group_provider

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Size returns the byte extent the write needs in its target buffer.
func (w BufferWrite) Size() uint64 {
	return w.Offset + uint64(len(w.Data))
}

// Extents folds a batch of writes into the minimum buffer size required per
// binding of each provider.
//
// Parameters:
//   - writes: the batch
//
// Returns:
//   - map[BindGroupProvider]map[int]uint64: required sizes keyed by provider and binding
func Extents(writes []BufferWrite) map[BindGroupProvider]map[int]uint64 {
	out := make(map[BindGroupProvider]map[int]uint64)
	for _, w := range writes {
		m := out[w.Provider]
		if m == nil {
			m = make(map[int]uint64)
			out[w.Provider] = m
		}
		m[w.Binding] = max(m[w.Binding], w.Size())
	}
	return out
}
