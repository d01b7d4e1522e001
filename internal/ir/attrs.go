package ir

// Attr is one named attribute on an op. There is no way to store two
// attributes under one name, so setters replace by name.
type Attr struct {
	Name  string
	Value string
}

// AttrList is an ordered attribute collection with by-name access.
type AttrList []Attr

// Get returns the value stored under name.
func (l AttrList) Get(name string) (string, bool) {
	for _, a := range l {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Has reports whether name is present.
func (l AttrList) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Set stores value under name, replacing any previous entry.
func (l *AttrList) Set(name, value string) {
	for i := range *l {
		if (*l)[i].Name == name {
			(*l)[i].Value = value
			return
		}
	}
	*l = append(*l, Attr{Name: name, Value: value})
}
