package minio

import (
	"context"
	"testing"

	"github.com/GoArmGo/PhotoPrint/internal/config"
	"github.com/GoArmGo/PhotoPrint/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key, err := objectKey("blob:0b6f8f0e-1c1d-4c43-9f7e-1f0c8c3f0a11")
	require.NoError(t, err)
	assert.Equal(t, "uploads/0b6f8f0e-1c1d-4c43-9f7e-1f0c8c3f0a11", key)

	for _, bad := range []string{"", "blob:", "https://images.example.com/a.jpg"} {
		_, err := objectKey(bad)
		assert.ErrorIs(t, err, errForeignHandle, bad)
	}
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", endpointURL("localhost:9000", false))
	assert.Equal(t, "https://minio.internal", endpointURL("minio.internal", true))
	assert.Equal(t, "http://already:9000", endpointURL("http://already:9000", true))
}

func TestNewMinioClient_RequiresCredentials(t *testing.T) {
	_, err := NewMinioClient(context.Background(), &config.Config{MinioEndpoint: "localhost:9000"}, logger.Discard())
	assert.ErrorContains(t, err, "MINIO_ACCESS_KEY_ID")
}
