package transport

import "strconv"

// Code is a transfer error number. Values follow libcurl's CURLcode
// so that callers already familiar with them can map them directly.
type Code int

const (
	OK                     Code = 0
	UnsupportedProtocol    Code = 1
	URLMalformat           Code = 3
	CouldntResolveProxy    Code = 5
	CouldntResolveHost     Code = 6
	CouldntConnect         Code = 7
	WriteError             Code = 23
	ReadError              Code = 26
	OperationTimedOut      Code = 28
	SSLConnectError        Code = 35
	AbortedByCallback      Code = 42
	TooManyRedirects       Code = 47
	GotNothing             Code = 52
	SendError              Code = 55
	RecvError              Code = 56
	PeerFailedVerification Code = 60
	BadContentEncoding     Code = 61
)

var codeText = map[Code]string{
	OK:                     "No error",
	UnsupportedProtocol:    "Unsupported protocol",
	URLMalformat:           "URL using bad/illegal format or missing URL",
	CouldntResolveProxy:    "Couldn't resolve proxy name",
	CouldntResolveHost:     "Couldn't resolve host name",
	CouldntConnect:         "Couldn't connect to server",
	WriteError:             "Failed writing received data to disk/application",
	ReadError:              "Failed to open/read local data from file/application",
	OperationTimedOut:      "Timeout was reached",
	SSLConnectError:        "SSL connect error",
	AbortedByCallback:      "Operation was aborted by an application callback",
	TooManyRedirects:       "Number of redirects hit maximum amount",
	GotNothing:             "Server returned nothing (no headers, no data)",
	SendError:              "Failed sending data to the peer",
	RecvError:              "Failure when receiving data from the peer",
	PeerFailedVerification: "SSL peer certificate or SSH remote key was not OK",
	BadContentEncoding:     "Unrecognized or bad HTTP Content or Transfer-Encoding",
}

func (c Code) String() string {
	if text, ok := codeText[c]; ok {
		return text
	}
	return "Unknown error " + strconv.Itoa(int(c))
}
