package host

// Multi forwards each call to every host in order. A host that panics does
// not keep the call from the hosts after it; the first panic is raised again
// once every host has been called.
type Multi []Host

func (m Multi) SetComponentValue(p Payload) {
	m.each(func(h Host) { h.SetComponentValue(p) })
}

func (m Multi) SetFrameHeight() {
	m.each(func(h Host) { h.SetFrameHeight() })
}

func (m Multi) each(call func(Host)) {
	var first any
	for _, h := range m {
		if r := guard(h, call); r != nil && first == nil {
			first = r
		}
	}
	if first != nil {
		panic(first)
	}
}

func guard(h Host, call func(Host)) (recovered any) {
	defer func() { recovered = recover() }()
	call(h)
	return nil
}

// Join builds a Multi, skipping nil hosts. A single host is returned as is.
func Join(hosts ...Host) Host {
	var m Multi
	for _, h := range hosts {
		if h != nil {
			m = append(m, h)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}
