package storage

import (
	"alcyxob/gym-tracker/internal/config"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPhotoKey(t *testing.T) {
	userID, weightID := primitive.NewObjectID(), primitive.NewObjectID()

	key := PhotoKey(userID, weightID, "image/png")
	assert.True(t, strings.HasPrefix(key, "progress-photos/"+userID.Hex()+"/"+weightID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, PhotoKey(userID, weightID, "image/png"))

	assert.True(t, PhotoKeyBelongsTo(key, userID, weightID))
	assert.False(t, PhotoKeyBelongsTo(key, primitive.NewObjectID(), weightID))
	assert.False(t, PhotoKeyBelongsTo(key, userID, primitive.NewObjectID()))
	assert.False(t, PhotoKeyBelongsTo("progress-photos/"+userID.Hex()+"/"+weightID.Hex()+"/", userID, weightID))
	assert.False(t, PhotoKeyBelongsTo("progress-photos/"+userID.Hex()+"/"+weightID.Hex()+"/a/b.png", userID, weightID))
}

func TestNewS3Storage_DisabledWithoutBucket(t *testing.T) {
	fs, err := NewS3Storage(context.Background(), config.S3Config{})
	require.NoError(t, err)

	_, err = fs.GeneratePresignedUploadURL(context.Background(), "k", "image/png", time.Minute)
	assert.True(t, IsDisabled(err))
	assert.True(t, IsDisabled(fs.DeleteObject(context.Background(), "k")))
}

func TestS3Storage_PresignUsesCustomEndpoint(t *testing.T) {
	fs, err := NewS3Storage(context.Background(), config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		BucketName:      "photos",
	})
	require.NoError(t, err)

	url, err := fs.GeneratePresignedUploadURL(context.Background(), "progress-photos/a/b/c.png", "image/png", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/photos/progress-photos/a/b/c.png?"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
}
