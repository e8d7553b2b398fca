package heap

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/wippyai/runtime-bridge/handle"
)

// collect runs a stop-the-world mark/sweep. Roots are the pinned objects;
// anything they cannot reach is reclaimed and its handles go stale. The
// committed budget shrinks back to what the survivors need. Callers hold
// the write lock.
func (e *Engine) collect(reason string) {
	live := make(map[handle.Object]*object, e.objects.Len())
	e.objects.Each(func(h handle.Object, o *object) bool {
		o.marked = false
		live[h] = o
		return true
	})

	var stack []*object
	for _, o := range live {
		if o.pins > 0 {
			o.marked = true
			stack = append(stack, o)
		}
	}

	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ti := e.types[o.typeID-1]
		for _, idx := range ti.refs {
			fl := &ti.fields[idx]
			token := handle.Object(binary.LittleEndian.Uint64(o.data[fl.offset:]))
			if token == 0 {
				continue
			}
			if t, ok := live[token]; ok && !t.marked {
				t.marked = true
				stack = append(stack, t)
			}
		}
	}

	var reclaimedBytes uint64
	reclaimed := 0
	for h, o := range live {
		if !o.marked {
			e.objects.Remove(h)
			e.used -= uint64(len(o.data))
			reclaimedBytes += uint64(len(o.data))
			reclaimed++
		}
	}

	e.committed = roundChunk(e.used, e.cfg.ChunkBytes)
	if e.cfg.MaxHeapBytes != 0 && e.committed > e.cfg.MaxHeapBytes {
		e.committed = e.cfg.MaxHeapBytes
	}
	e.collections++

	Logger().Debug("collection complete",
		zap.String("reason", reason),
		zap.Int("reclaimed_objects", reclaimed),
		zap.Uint64("reclaimed_bytes", reclaimedBytes),
		zap.Uint64("live_bytes", e.used),
		zap.Uint64("committed_bytes", e.committed),
		zap.Uint64("collections", e.collections),
	)
}
