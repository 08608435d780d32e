package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/strategy/ctxmissing"
	"github.com/aws/aws-xray-sdk-go/xray"
	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/todos/pkg/access"
	"github.com/storacha/todos/pkg/presigner"
	"github.com/storacha/todos/pkg/service/todos"
)

var log = logging.Logger("aws")

// ErrMissingSecret means that the value returned from Secrets was empty
var ErrMissingSecret = errors.New("missing value for secret")

// OfflineDynamoEndpoint is the DynamoDB endpoint used when running offline and
// no endpoint is configured.
const OfflineDynamoEndpoint = "http://localhost:8000"

func mustGetEnv(envVar string) string {
	value := os.Getenv(envVar)
	if len(value) == 0 {
		panic(fmt.Errorf("missing env var: %s", envVar))
	}
	return value
}

// EnableTracing records every AWS SDK call made with cfg as an X-Ray
// subsegment of the segment in the request context. Calls made without a
// segment are logged and not traced.
func EnableTracing(cfg *aws.Config) error {
	err := xray.Configure(xray.Config{
		ContextMissingStrategy: ctxmissing.NewDefaultLogErrorStrategy(),
	})
	if err != nil {
		return fmt.Errorf("configuring X-Ray: %w", err)
	}
	awsv2.AWSV2Instrumentor(&cfg.APIOptions)
	return nil
}

type Config struct {
	Config                              aws.Config
	S3Options                           []func(*s3.Options)
	DynamoOptions                       []func(*dynamodb.Options)
	SentryDSN                           string
	SentryEnvironment                   string
	TodosTableName                      string
	TodosCreatedAtIndex                 string
	AttachmentBucket                    string
	AttachmentBucketEndpoint            string
	AttachmentBucketRegion              string
	AttachmentBucketAccessKeyID         string
	AttachmentBucketSecretAccessKey     string
	AttachmentURLPattern                string
	SignedURLExpiration                 uint64
	DisableUploadURLOwnershipValidation bool
}

func mustGetSSMParams(ctx context.Context, client *ssm.Client, names ...string) map[string]string {
	response, err := client.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          names,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		panic(fmt.Errorf("retrieving SSM parameters: %w", err))
	}
	params := map[string]string{}
	for _, name := range names {
		value := ""
		for _, p := range response.Parameters {
			if *p.Name == name {
				value = *p.Value
				break
			}
		}
		if value == "" {
			panic(ErrMissingSecret)
		}
		params[name] = value
	}
	return params
}

// FromEnv constructs the AWS Configuration from the environment
func FromEnv(ctx context.Context) Config {
	// failures surface to the caller on the first attempt
	awsConfig, err := config.LoadDefaultConfig(ctx, config.WithRetryer(func() aws.Retryer {
		return aws.NopRetryer{}
	}))
	if err != nil {
		panic(fmt.Errorf("loading aws default config: %w", err))
	}

	if os.Getenv("IS_OFFLINE") == "" && os.Getenv("DISABLE_XRAY_TRACING") == "" {
		if err := EnableTracing(&awsConfig); err != nil {
			panic(err)
		}
	}

	var secretNames []string
	for _, n := range []string{
		"ATTACHMENT_S3_BUCKET_ACCESS_KEY_ID",
		"ATTACHMENT_S3_BUCKET_SECRET_ACCESS_KEY",
	} {
		if os.Getenv(n) != "" {
			secretNames = append(secretNames, os.Getenv(n))
		}
	}
	secrets := map[string]string{}
	if len(secretNames) > 0 {
		secrets = mustGetSSMParams(ctx, ssm.NewFromConfig(awsConfig), secretNames...)
	}

	expiration := uint64(todos.DefaultURLExpiration)
	if s := os.Getenv("SIGNED_URL_EXPIRATION"); s != "" {
		expiration, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			panic(fmt.Errorf("parsing signed URL expiration: %w", err))
		}
	}

	var dynamoOpts []func(*dynamodb.Options)
	dynamoEndpoint := os.Getenv("DYNAMODB_ENDPOINT")
	if os.Getenv("IS_OFFLINE") != "" && dynamoEndpoint == "" {
		dynamoEndpoint = OfflineDynamoEndpoint
	}
	if dynamoEndpoint != "" {
		log.Infow("using custom DynamoDB endpoint", "endpoint", dynamoEndpoint)
		dynamoOpts = append(dynamoOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(dynamoEndpoint)
			if os.Getenv("IS_OFFLINE") != "" {
				o.Region = "localhost"
			}
		})
	}

	return Config{
		Config:                              awsConfig,
		DynamoOptions:                       dynamoOpts,
		SentryDSN:                           os.Getenv("SENTRY_DSN"),
		SentryEnvironment:                   os.Getenv("SENTRY_ENVIRONMENT"),
		TodosTableName:                      mustGetEnv("TODOS_TABLE"),
		TodosCreatedAtIndex:                 os.Getenv("TODOS_CREATED_AT_INDEX"),
		AttachmentBucket:                    mustGetEnv("ATTACHMENT_S3_BUCKET"),
		AttachmentBucketEndpoint:            os.Getenv("ATTACHMENT_S3_BUCKET_ENDPOINT"),
		AttachmentBucketRegion:              os.Getenv("ATTACHMENT_S3_BUCKET_REGION"),
		AttachmentBucketAccessKeyID:         secrets[os.Getenv("ATTACHMENT_S3_BUCKET_ACCESS_KEY_ID")],
		AttachmentBucketSecretAccessKey:     secrets[os.Getenv("ATTACHMENT_S3_BUCKET_SECRET_ACCESS_KEY")],
		AttachmentURLPattern:                os.Getenv("ATTACHMENT_URL_PATTERN"),
		SignedURLExpiration:                 expiration,
		DisableUploadURLOwnershipValidation: os.Getenv("DISABLE_UPLOAD_URL_OWNERSHIP_VALIDATION") != "",
	}
}

// Construct creates the to-do service backed by DynamoDB and S3.
func Construct(cfg Config) (*todos.TodoService, error) {
	s3Opts := cfg.S3Options
	if cfg.AttachmentBucketAccessKeyID != "" && cfg.AttachmentBucketSecretAccessKey != "" {
		s3Opts = append(s3Opts, func(opts *s3.Options) {
			if cfg.AttachmentBucketRegion != "" {
				opts.Region = cfg.AttachmentBucketRegion
			}
			opts.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AttachmentBucketAccessKeyID,
				cfg.AttachmentBucketSecretAccessKey,
				"",
			)
		})
	}
	if cfg.AttachmentBucketEndpoint != "" {
		s3Opts = append(s3Opts, func(opts *s3.Options) {
			opts.BaseEndpoint = &cfg.AttachmentBucketEndpoint
			opts.UsePathStyle = true
		})
	}

	var (
		attachmentAccess access.Access
		err              error
	)
	if cfg.AttachmentURLPattern != "" {
		attachmentAccess, err = access.NewPatternAccess(cfg.AttachmentURLPattern)
	} else {
		attachmentAccess, err = access.NewBucketAccess(cfg.AttachmentBucket)
	}
	if err != nil {
		return nil, fmt.Errorf("setting up attachment access: %w", err)
	}

	todoStore := NewDynamoTodoStore(cfg.Config, cfg.TodosTableName, cfg.TodosCreatedAtIndex, cfg.DynamoOptions...)
	signer := presigner.NewS3ClientPresigner(s3.NewFromConfig(cfg.Config, s3Opts...), cfg.AttachmentBucket)

	expiration := cfg.SignedURLExpiration
	if expiration == 0 {
		expiration = todos.DefaultURLExpiration
	}

	opts := []todos.Option{
		todos.WithTodoStore(todoStore),
		todos.WithAccess(attachmentAccess),
		todos.WithUploadSigner(signer),
		todos.WithURLExpiration(expiration),
	}
	if cfg.DisableUploadURLOwnershipValidation {
		opts = append(opts, todos.WithoutOwnershipCheck())
	}

	return todos.New(opts...)
}
