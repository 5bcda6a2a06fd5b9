package pagestate

import "fmt"

// ErrorKind says which stage of the fetch-and-extract pipeline gave
// out.
type ErrorKind int

const (
	// KindProxyUnavailable: the listing service was unreachable or
	// returned nothing usable. Only the fallback path can fail this
	// way, direct mode never consults the pool.
	KindProxyUnavailable ErrorKind = iota + 1
	// KindProxiesExhausted: every candidate in the pool was tried and
	// none produced a usable response.
	KindProxiesExhausted
	// KindStateNotFound: neither embedding convention matched, the
	// page structure is unrecognized (redesign, wrong url, or an
	// anti-scraping interstitial).
	KindStateNotFound
	// KindStateUnparsable: a convention matched but its capture is
	// not valid json. Distinct from not-found so callers can tell a
	// structural page change from a garbled capture.
	KindStateUnparsable
	// KindTransportFailure: the network call itself failed.
	KindTransportFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindProxyUnavailable:
		return "proxy unavailable"
	case KindProxiesExhausted:
		return "proxies exhausted"
	case KindStateNotFound:
		return "state not found"
	case KindStateUnparsable:
		return "state unparsable"
	case KindTransportFailure:
		return "transport failure"
	}
	return "unknown"
}

// Error is the single failure category this package surfaces. The
// kind identifies the failed stage, the wrapped cause keeps the
// original diagnostics reachable through errors.Is/As.
type Error struct {
	Kind  ErrorKind
	cause error
}

func wrapError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}
