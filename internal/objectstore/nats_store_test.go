package objectstore_test

import (
	"context"
	"testing"

	"github.com/book-expert/speechify-service/internal/objectstore"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StartTestServer starts an in-memory NATS server for testing purposes.
func StartTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func newJetStream(t *testing.T) nats.JetStreamContext {
	t.Helper()

	natsServer, natsConnection := StartTestServer(t)
	t.Cleanup(natsServer.Shutdown)
	t.Cleanup(natsConnection.Close)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	return jetstreamContext
}

func TestNatsObjectStore_UploadDownload(t *testing.T) {
	t.Parallel()

	jetstreamContext := newJetStream(t)

	store, err := objectstore.New(jetstreamContext, "test-bucket")
	require.NoError(t, err)

	ctx := context.Background()
	key := "my-test-object"
	uploadData := []byte("hello world, this is a test")

	err = store.Upload(ctx, key, uploadData)
	require.NoError(t, err)

	downloadData, err := store.Download(ctx, key)
	require.NoError(t, err)
	require.Equal(t, uploadData, downloadData)
}

func TestNatsObjectStore_BindsExistingBucket(t *testing.T) {
	t.Parallel()

	jetstreamContext := newJetStream(t)

	first, err := objectstore.New(jetstreamContext, "shared")
	require.NoError(t, err)
	require.NoError(t, first.Upload(context.Background(), "k", []byte("v")))

	second, err := objectstore.New(jetstreamContext, "shared")
	require.NoError(t, err)

	data, err := second.Download(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}

func TestNatsObjectStore_DownloadMissing(t *testing.T) {
	t.Parallel()

	store, err := objectstore.New(newJetStream(t), "empty")
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "absent")
	require.Error(t, err)
}

func TestNatsStorage_UploadMakePublic(t *testing.T) {
	t.Parallel()

	storage := objectstore.NewNatsStorage(newJetStream(t), "https://audio.example.com/")
	object := storage.Bucket("AUDIO").Object("tts_abc.mp3")

	ctx := context.Background()
	require.NoError(t, object.Upload(ctx, []byte("mp3"), "audio/mpeg"))

	store, err := storage.Open("AUDIO")
	require.NoError(t, err)

	public, err := store.IsPublic("tts_abc.mp3")
	require.NoError(t, err)
	assert.False(t, public)

	require.NoError(t, object.MakePublic(ctx))

	public, err = store.IsPublic("tts_abc.mp3")
	require.NoError(t, err)
	assert.True(t, public)

	contentType, err := store.ContentType("tts_abc.mp3")
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", contentType)

	data, err := store.Download(ctx, "tts_abc.mp3")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3"), data)

	assert.Equal(t, "https://audio.example.com/AUDIO/tts_abc.mp3", object.PublicURL())
}

func TestNatsStorage_EmptyBucketName(t *testing.T) {
	t.Parallel()

	storage := objectstore.NewNatsStorage(newJetStream(t), "")

	err := storage.Bucket("").Object("k").Upload(context.Background(), []byte("x"), "audio/mpeg")
	require.ErrorIs(t, err, objectstore.ErrBucketNameEmpty)
}
