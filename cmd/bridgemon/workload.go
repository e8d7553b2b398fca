package main

import (
	"math/rand"
	"time"

	"github.com/wippyai/runtime-bridge/errors"
	"github.com/wippyai/runtime-bridge/handle"
	"github.com/wippyai/runtime-bridge/heap"
)

// mutator churns the heap engine so the monitor has something to watch.
// It grows a randomly linked node population, releases stragglers as it
// goes, and sheds half the population when the heap pushes back.
type mutator struct {
	eng    *heap.Engine
	node   heap.TypeID
	live   []handle.Object
	rng    *rand.Rand
	allocs uint64
	frees  uint64
}

func newMutator(eng *heap.Engine) (*mutator, error) {
	node, err := eng.RegisterType(heap.TypeSpec{
		Name: "bridgemon.node",
		Fields: []heap.FieldSpec{
			{Name: "next", Kind: heap.KindRef},
			{Name: "prev", Kind: heap.KindRef},
			{Name: "weight", Kind: heap.KindScalar, Size: 8},
			{Name: "ticks", Kind: heap.KindScalar, Size: 8},
		},
	})
	if err != nil {
		return nil, err
	}
	return &mutator{
		eng:  eng,
		node: node,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// run performs n mutation steps.
func (m *mutator) run(n int) error {
	for i := 0; i < n; i++ {
		if err := m.step(); err != nil {
			return err
		}
	}
	return nil
}

// step allocates and links most of the time, releases now and then.
func (m *mutator) step() error {
	if len(m.live) > 0 && m.rng.Intn(4) == 0 {
		i := m.rng.Intn(len(m.live))
		if err := m.eng.Release(m.live[i]); err != nil {
			return err
		}
		m.live[i] = m.live[len(m.live)-1]
		m.live = m.live[:len(m.live)-1]
		m.frees++
		return nil
	}

	obj, err := m.eng.New(m.node)
	if err != nil {
		if errors.IsOutOfMemory(err) {
			return m.shed()
		}
		return err
	}
	if len(m.live) > 0 {
		parent := m.live[m.rng.Intn(len(m.live))]
		if err := m.eng.SetRef(parent, "next", obj); err != nil {
			return err
		}
	}
	m.live = append(m.live, obj)
	m.allocs++
	return nil
}

// shed releases half the population, oldest first, and collects.
func (m *mutator) shed() error {
	half := len(m.live) / 2
	for _, obj := range m.live[:half] {
		if err := m.eng.Release(obj); err != nil {
			return err
		}
		m.frees++
	}
	m.live = append(m.live[:0], m.live[half:]...)
	m.eng.RequestGC()
	return nil
}

func (m *mutator) objects() int {
	return len(m.live)
}

func (m *mutator) stats() (allocs, frees uint64) {
	return m.allocs, m.frees
}
