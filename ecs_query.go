package hoverrace

import (
	"reflect"
)

// Queries visit every entity that has all requested components, in the
// deterministic order kept by Ecs. Components passed as optionals may be
// missing, in which case the callback receives nil for them. Returning false
// from the callback stops the iteration.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }
type Query4[A, B, C, D any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: cmd.app.ecs}
}

// column is one resolved component slice of an archetype.
type column[T any] struct {
	data   []T
	absent bool
}

func resolveColumn[T any](ecs *Ecs, arch *archetype, opt set[componentId]) (column[T], bool) {
	id := identifyComponent[T](ecs)
	if data, ok := arch.componentData[id]; ok {
		return column[T]{data: data.([]T)}, true
	}
	if _, ok := opt[id]; ok {
		return column[T]{absent: true}, true
	}
	return column[T]{}, false
}

func (c column[T]) at(r row) *T {
	if c.absent {
		return nil
	}
	return &c.data[r]
}

// eachRow walks live rows of arch in order.
func eachRow(arch *archetype, fn func(EntityId, row) bool) bool {
	for r, eid := range arch.rows {
		if eid == noEntity {
			continue
		}
		if !fn(eid, row(r)) {
			return false
		}
	}
	return true
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	opt := identifyOptionals(q.ecs, optionals...)
	for _, arch := range q.ecs.archetypeOrder {
		a, ok := resolveColumn[A](q.ecs, arch, opt)
		if !ok {
			continue
		}
		if !eachRow(arch, func(eid EntityId, r row) bool {
			return m(eid, a.at(r))
		}) {
			return
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	opt := identifyOptionals(q.ecs, optionals...)
	for _, arch := range q.ecs.archetypeOrder {
		a, okA := resolveColumn[A](q.ecs, arch, opt)
		b, okB := resolveColumn[B](q.ecs, arch, opt)
		if !okA || !okB {
			continue
		}
		if !eachRow(arch, func(eid EntityId, r row) bool {
			return m(eid, a.at(r), b.at(r))
		}) {
			return
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	opt := identifyOptionals(q.ecs, optionals...)
	for _, arch := range q.ecs.archetypeOrder {
		a, okA := resolveColumn[A](q.ecs, arch, opt)
		b, okB := resolveColumn[B](q.ecs, arch, opt)
		c, okC := resolveColumn[C](q.ecs, arch, opt)
		if !okA || !okB || !okC {
			continue
		}
		if !eachRow(arch, func(eid EntityId, r row) bool {
			return m(eid, a.at(r), b.at(r), c.at(r))
		}) {
			return
		}
	}
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	opt := identifyOptionals(q.ecs, optionals...)
	for _, arch := range q.ecs.archetypeOrder {
		a, okA := resolveColumn[A](q.ecs, arch, opt)
		b, okB := resolveColumn[B](q.ecs, arch, opt)
		c, okC := resolveColumn[C](q.ecs, arch, opt)
		d, okD := resolveColumn[D](q.ecs, arch, opt)
		if !okA || !okB || !okC || !okD {
			continue
		}
		if !eachRow(arch, func(eid EntityId, r row) bool {
			return m(eid, a.at(r), b.at(r), c.at(r), d.at(r))
		}) {
			return
		}
	}
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId])
	for _, c := range components {
		res[ecs.getComponentId(componentType(c))] = struct{}{}
	}
	return res
}

func identifyComponent[A any](ecs *Ecs) componentId {
	var a A
	return ecs.getComponentId(reflect.TypeOf(a))
}
