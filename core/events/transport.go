package events

const (
	KindConnectivityChanged Kind = "transport.connectivity_changed"
	KindTransportFailed     Kind = "transport.failed"
)

type ConnectivityChanged struct {
	Base
	Connected bool
}

func NewConnectivityChanged(connected bool) ConnectivityChanged {
	return ConnectivityChanged{Base: NewBase(KindConnectivityChanged), Connected: connected}
}

// TransportFailed carries a transport-level failure. Err is usually a
// connection or protocol error from the transport package.
type TransportFailed struct {
	Base
	Err error
}

func NewTransportFailed(err error) TransportFailed {
	return TransportFailed{Base: NewBase(KindTransportFailed), Err: err}
}
