package semantic

// message is the part shared by requests and responses.
// Every method returning a message returns a copy.
type message struct {
	version string
	headers Headers
	body    Stream
}

func newMessage() message {
	return message{version: "1.1", body: EmptyStream()}
}

// ProtocolVersion returns the version without the "HTTP/" prefix, e.g. "1.1".
func (m *message) ProtocolVersion() string { return m.version }

// Headers returns a copy of the headers.
func (m *message) Headers() Headers { return m.headers.Clone() }

func (m *message) HasHeader(name string) bool { return m.headers.Has(name) }

func (m *message) Header(name string) []string {
	values, _ := m.headers.Values(name)
	return values
}

func (m *message) HeaderLine(name string) string { return m.headers.Line(name) }

func (m *message) Body() Stream { return m.body }

func (m message) clone() message {
	m.headers = m.headers.Clone()
	return m
}

func (m message) withHeader(name string, values ...string) message {
	m = m.clone()
	m.headers.Set(name, values...)
	return m
}

func (m message) withAddedHeader(name string, values ...string) message {
	m = m.clone()
	m.headers.Add(name, values...)
	return m
}

func (m message) withoutHeader(name string) message {
	m = m.clone()
	m.headers.Del(name)
	return m
}

func (m message) withBody(body Stream) message {
	if body == nil {
		body = EmptyStream()
	}
	m.body = body
	return m
}
