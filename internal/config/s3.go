package config

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/vango-dev/wayfinder/internal/errors"
)

// GetObjectAPI is the part of *s3.Client LoadS3 needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// maxS3ConfigSize bounds how much of an object LoadS3 reads.
const maxS3ConfigSize = 1 << 20

// LoadS3 reads and validates a config document stored at bucket/key.
//
//	cfg, _ := awsconfig.LoadDefaultConfig(ctx)
//	c, err := config.LoadS3(ctx, s3.NewFromConfig(cfg), "my-bucket", "wayfinder.json")
func LoadS3(ctx context.Context, api GetObjectAPI, bucket, key string) (*Config, error) {
	uri := "s3://" + bucket + "/" + key
	out, err := api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if stderrors.As(err, &noKey) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No object at " + uri).
				Wrap(err)
		}
		return nil, errors.New(errors.CodeS3Fetch).
			WithDetail("GetObject " + uri + " failed").
			Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxS3ConfigSize+1))
	if err != nil {
		return nil, errors.New(errors.CodeS3Fetch).Wrap(err)
	}
	if len(data) > maxS3ConfigSize {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail(uri + " is larger than 1 MiB")
	}
	return parse(data, uri)
}

// ParseS3URI splits "s3://bucket/key" into its parts.
func ParseS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
