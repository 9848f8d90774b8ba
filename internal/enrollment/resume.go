package enrollment

import "net/url"

// Provider values carried back on the fixed return URL after an external
// redirect. The outbound redirect contract requires the marker to survive the
// round trip.
const (
	returnParam       = "provider"
	providerSignature = "signature"
	providerPayment   = "payment"
)

// DetectReturn parses the return-trip marker from the redirect query. It is a
// pure parse; acting on the markers is the service's job.
func DetectReturn(query url.Values) Resumption {
	var r Resumption
	switch query.Get(returnParam) {
	case providerSignature:
		r.FromSignature = true
	case providerPayment:
		r.FromPayment = true
	}
	return r
}
