package provider

import "context"

// Adapter implements the scheduler's dispatch contract for one provider
// family and one on-the-wire dialect. The scheduler never speaks a vendor's
// wire format directly; it only ever calls through an Adapter.
type Adapter interface {
	// Complete performs one blocking round trip against the provider and
	// returns the neutral Response, the normalized rate-limit Headers read
	// off the (successful or failed) HTTP response, and an error.
	//
	// On failure the returned error is passed to the same adapter's
	// ClassifyError to obtain its RetryClass.
	Complete(ctx context.Context, req *Request) (*Response, Headers, error)

	// ClassifyError maps a provider-specific failure to the scheduler's
	// retry taxonomy.
	ClassifyError(err error) RetryClass
}
