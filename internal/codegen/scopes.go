package codegen

// scopedTable is a stack of symbol maps. Lookups walk from the
// innermost scope outward; inserts always target the innermost scope.
// The table is constructed with a single base scope that lives as long
// as the module being built.
type scopedTable[K comparable, V any] struct {
	scopes []map[K]V
}

func newScopedTable[K comparable, V any]() *scopedTable[K, V] {
	return &scopedTable[K, V]{scopes: []map[K]V{make(map[K]V)}}
}

func (t *scopedTable[K, V]) push() {
	t.scopes = append(t.scopes, make(map[K]V))
}

func (t *scopedTable[K, V]) pop() {
	if len(t.scopes) <= 1 {
		panic("scoped table: pop of base scope")
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

func (t *scopedTable[K, V]) Insert(key K, val V) {
	t.scopes[len(t.scopes)-1][key] = val
}

func (t *scopedTable[K, V]) Lookup(key K) (V, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if v, ok := t.scopes[i][key]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

func (t *scopedTable[K, V]) Len() int {
	n := 0
	for _, s := range t.scopes {
		n += len(s)
	}
	return n
}

// popper bundles the pop calls for the tables a lexical scope spans.
type popper []func()

func (p popper) Pop() {
	for i := len(p) - 1; i >= 0; i-- {
		p[i]()
	}
}
