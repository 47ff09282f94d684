package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonno85/video-multipart-uploader/internal/domain"
)

type fakeS3 struct {
	headErr     error
	created     *s3.CreateBucketInput
	completed   *s3.CompleteMultipartUploadInput
	aborted     *s3.AbortMultipartUploadInput
	completeErr error
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = params
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-" + aws.ToString(params.Key))}, nil
}

func (f *fakeS3) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	f.completed = params
	return &s3.CompleteMultipartUploadOutput{}, f.completeErr
}

func (f *fakeS3) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	f.aborted = params
	return &s3.AbortMultipartUploadOutput{}, nil
}

type fakePresigner struct {
	expires time.Duration
}

func (f *fakePresigner) PresignUploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		Method: "PUT",
		URL:    fmt.Sprintf("https://s3.test/%s?partNumber=%d&uploadId=%s", aws.ToString(params.Key), aws.ToInt32(params.PartNumber), aws.ToString(params.UploadId)),
	}, nil
}

func TestS3ClientPresignPartURLs(t *testing.T) {
	presigner := &fakePresigner{}
	client := NewS3ClientWithAPI(&fakeS3{}, presigner, "videos", "eu-west-1")

	urls, err := client.PresignPartURLs(context.Background(), "videos/1/a.mp4", "u1", 3, 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, urls, 3)
	for i, u := range urls {
		assert.Equal(t, fmt.Sprintf("https://s3.test/videos/1/a.mp4?partNumber=%d&uploadId=u1", i+1), u)
	}
	assert.Equal(t, 15*time.Minute, presigner.expires)
}

func TestS3ClientCompleteMultipartUpload(t *testing.T) {
	api := &fakeS3{}
	client := NewS3ClientWithAPI(api, &fakePresigner{}, "videos", "eu-west-1")

	err := client.CompleteMultipartUpload(context.Background(), "k", "u1", []domain.UploadPart{
		{PartNumber: 1, ETag: "a"},
		{PartNumber: 2, ETag: "b"},
	})
	require.NoError(t, err)
	require.NotNil(t, api.completed)
	parts := api.completed.MultipartUpload.Parts
	require.Len(t, parts, 2)
	assert.Equal(t, int32(1), aws.ToInt32(parts[0].PartNumber))
	assert.Equal(t, "a", aws.ToString(parts[0].ETag))
	assert.Equal(t, int32(2), aws.ToInt32(parts[1].PartNumber))
	assert.Equal(t, "b", aws.ToString(parts[1].ETag))

	api.completeErr = errors.New("boom")
	err = client.CompleteMultipartUpload(context.Background(), "k", "u1", nil)
	require.ErrorContains(t, err, "failed to complete multipart upload")
}

func TestS3ClientEnsureBucket(t *testing.T) {
	api := &fakeS3{}
	client := NewS3ClientWithAPI(api, &fakePresigner{}, "videos", "eu-west-1")
	require.NoError(t, client.EnsureBucket(context.Background()))
	assert.Nil(t, api.created)

	api.headErr = errors.New("not found")
	require.NoError(t, client.EnsureBucket(context.Background()))
	require.NotNil(t, api.created)
	assert.Equal(t, "eu-west-1", string(api.created.CreateBucketConfiguration.LocationConstraint))

	api = &fakeS3{headErr: errors.New("not found")}
	client = NewS3ClientWithAPI(api, &fakePresigner{}, "videos", "us-east-1")
	require.NoError(t, client.EnsureBucket(context.Background()))
	assert.Nil(t, api.created.CreateBucketConfiguration)
}

func TestS3ClientCreateAndAbort(t *testing.T) {
	api := &fakeS3{}
	client := NewS3ClientWithAPI(api, &fakePresigner{}, "videos", "eu-west-1")

	id, err := client.CreateMultipartUpload(context.Background(), "k", "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "upload-k", id)

	require.NoError(t, client.AbortMultipartUpload(context.Background(), "k", id))
	assert.Equal(t, "upload-k", aws.ToString(api.aborted.UploadId))
}
