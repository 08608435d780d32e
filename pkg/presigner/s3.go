package presigner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"
)

const ISO8601BasicFormat = "20060102T150405Z"

// NonceParam is the signed query parameter that makes every upload URL unique.
const NonceParam = "upload-nonce"

var (
	ErrSignatureMismatch = errors.New("signature verification failed")
	ErrExpired           = errors.New("signed URL has expired")
)

type S3RequestPresigner struct {
	endpoint      url.URL
	bucketName    string
	presignClient *s3.PresignClient
}

// withNonce adds the nonce to the request query before the presigner runs so
// it is covered by the signature.
func withNonce(nonce string) func(*s3.PresignOptions) {
	return func(opts *s3.PresignOptions) {
		if nonce == "" {
			return
		}
		opts.ClientOptions = append(opts.ClientOptions, func(o *s3.Options) {
			o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
				return stack.Build.Add(middleware.BuildMiddlewareFunc("UploadNonce", func(
					ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler,
				) (middleware.BuildOutput, middleware.Metadata, error) {
					if req, ok := in.Request.(*smithyhttp.Request); ok {
						q := req.URL.Query()
						q.Set(NonceParam, nonce)
						req.URL.RawQuery = q.Encode()
					}
					return next.HandleBuild(ctx, in)
				}), middleware.After)
			})
		})
	}
}

func withTTL(ttl time.Duration) func(*s3.PresignOptions) {
	return func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	}
}

func (ss *S3RequestPresigner) SignUploadURL(ctx context.Context, key string, ttl uint64) (url.URL, http.Header, error) {
	signedReq, err := ss.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(ss.bucketName),
		Key:    aws.String(key),
	}, withTTL(time.Duration(ttl)*time.Second), withNonce(uuid.NewString()))
	if err != nil {
		return url.URL{}, nil, fmt.Errorf("signing request: %w", err)
	}

	reqURL, err := url.Parse(signedReq.URL)
	if err != nil {
		return url.URL{}, nil, fmt.Errorf("parsing signed URL: %w", err)
	}

	return *reqURL, signedReq.SignedHeader, nil
}

// pointInTimePresigner is a [s3.HTTPPresignerV4] whose signing time is frozen
// to the preconfigured value.
type pointInTimePresigner struct {
	signingTime time.Time
	presigner   s3.HTTPPresignerV4
}

func (pps pointInTimePresigner) PresignHTTP(
	ctx context.Context, credentials aws.Credentials, r *http.Request,
	payloadHash string, service string, region string, signingTime time.Time,
	optFns ...func(*v4.SignerOptions),
) (url string, signedHeader http.Header, err error) {
	return pps.presigner.PresignHTTP(ctx, credentials, r, payloadHash, service,
		region, pps.signingTime, optFns...)
}

func (ss *S3RequestPresigner) VerifyUploadURL(ctx context.Context, requestURL url.URL, requestHeaders http.Header) (url.URL, http.Header, error) {
	requestURL = *ss.endpoint.ResolveReference(&requestURL)
	parts := strings.Split(requestURL.Path, "/")
	if len(parts) < 3 {
		return url.URL{}, nil, fmt.Errorf("missing object key in path: %s", requestURL.Path)
	}
	key := strings.Join(parts[2:], "/")

	expires, err := strconv.ParseInt(requestURL.Query().Get("X-Amz-Expires"), 10, 64)
	if err != nil {
		return url.URL{}, nil, fmt.Errorf("parsing X-Amz-Expires parameter: %w", err)
	}

	signingTime, err := time.Parse(ISO8601BasicFormat, requestURL.Query().Get("X-Amz-Date"))
	if err != nil {
		return url.URL{}, nil, fmt.Errorf("parsing X-Amz-Date parameter: %w", err)
	}

	signedReq, err := ss.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(ss.bucketName),
		Key:    aws.String(key),
	}, withTTL(time.Duration(expires)*time.Second), withNonce(requestURL.Query().Get(NonceParam)), func(opts *s3.PresignOptions) {
		// configure the presigner for the time the original signing took place.
		ps := opts.Presigner
		stp := pointInTimePresigner{signingTime, ps}
		opts.Presigner = stp
	})
	if err != nil {
		return url.URL{}, nil, fmt.Errorf("signing request: %w", err)
	}

	if requestURL.String() != signedReq.URL {
		return url.URL{}, nil, ErrSignatureMismatch
	}

	if time.Now().After(signingTime.Add(time.Duration(expires) * time.Second)) {
		return url.URL{}, nil, ErrExpired
	}

	u, err := url.Parse(signedReq.URL)
	if err != nil {
		return url.URL{}, nil, fmt.Errorf("parsing signed URL: %w", err)
	}

	return *u, signedReq.SignedHeader, nil
}

var _ RequestPresigner = (*S3RequestPresigner)(nil)

// NewS3RequestPresigner creates a signer that uses the S3 SDK to sign and
// verify requests against a path-style endpoint, typically the local
// development server. The bucketName parameter is optional and defaults to
// "blob".
//
// Signed upload URLs take the form {endpoint}/{bucketName}/{key}
func NewS3RequestPresigner(accessKeyID string, secretAcessKey string, endpoint url.URL, bucketName string) (*S3RequestPresigner, error) {
	endpointstr := endpoint.String()

	var credsProvider aws.CredentialsProviderFunc = func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAcessKey,
		}, nil
	}

	cfg := aws.Config{
		Region:       "auto",
		Credentials:  credsProvider,
		BaseEndpoint: &endpointstr,
	}

	s3client := s3.NewFromConfig(cfg, func(opts *s3.Options) {
		opts.UsePathStyle = true
	})

	if bucketName == "" {
		bucketName = "blob"
	}

	return &S3RequestPresigner{endpoint, bucketName, s3.NewPresignClient(s3client)}, nil
}

// NewS3ClientPresigner creates a signer for objects in a bucket reachable by
// an already configured S3 client.
func NewS3ClientPresigner(client *s3.Client, bucketName string) *S3RequestPresigner {
	return &S3RequestPresigner{bucketName: bucketName, presignClient: s3.NewPresignClient(client)}
}
