package presigner

import (
	"context"
	"net/http"
	"net/url"
)

// UploadSigner issues signed upload URLs.
type UploadSigner interface {
	// SignUploadURL creates and signs a URL that allows a single PUT request to
	// upload data for the given object key.
	//
	// The ttl parameter determines the number of seconds the signed URL will be
	// valid for. Every call issues a fresh signature, even for the same key.
	//
	// It returns a signed URL that will accept a PUT request, and a set of HTTP
	// headers that should also be sent with the request.
	SignUploadURL(ctx context.Context, key string, ttl uint64) (url.URL, http.Header, error)
}

type RequestPresigner interface {
	UploadSigner
	// VerifyUploadURL ensures the upload URL was signed by this service and has
	// not expired. It returns the _signed_ URL and headers or error if the
	// signature is invalid.
	VerifyUploadURL(ctx context.Context, url url.URL, headers http.Header) (url.URL, http.Header, error)
}
