package awss3

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	meta    map[string]map[string]string
	putErr  error
	headErr error
	delErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.meta[aws.ToString(in.Key)] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestStore_PutExistsDelete(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	store := newStore(api, Options{Bucket: "rental", BaseEndpoint: "http://localhost:9000"}, logger.NewNop())

	key, err := store.Put(ctx, []byte("\xff\xd8\xff\xe0jpeg"), "Dress.JPG")
	require.NoError(t, err)
	assert.Regexp(t, `^photos/[0-9a-f-]{36}\.jpg$`, key)
	assert.Equal(t, "Dress.JPG", api.meta[key]["original-filename"])

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, key))
	ok, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting twice is fine
	require.NoError(t, store.Delete(ctx, key))
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	store := newStore(api, Options{Bucket: "rental"}, logger.NewNop())

	api.putErr = errors.New("throttled")
	_, err := store.Put(ctx, []byte("x"), "a.png")
	assert.ErrorIs(t, err, api.putErr)

	api.headErr = errors.New("access denied")
	_, err = store.Exists(ctx, "photos/a.png")
	assert.ErrorIs(t, err, api.headErr)

	api.delErr = &types.NoSuchKey{}
	assert.NoError(t, store.Delete(ctx, "photos/a.png"))
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBase(Options{PublicURL: "https://cdn.example.com", Bucket: "b"}))
	assert.Equal(t, "http://localhost:9000/b", publicBase(Options{BaseEndpoint: "http://localhost:9000/", Bucket: "b"}))
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", publicBase(Options{Bucket: "b", Region: "eu-west-1"}))

	store := newStore(newFakeS3(), Options{Bucket: "b", Region: "eu-west-1"}, logger.NewNop())
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/photos/x.jpg", store.URLFor("photos/x.jpg"))
}
