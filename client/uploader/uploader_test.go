package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms_server/server/common/uploadsig"
)

type staticCredentials struct {
	err error
}

func (s staticCredentials) UploadCredential(context.Context) (uploadsig.Credential, error) {
	if s.err != nil {
		return uploadsig.Credential{}, s.err
	}
	return uploadsig.Credential{
		Token:     "tok",
		Expire:    time.Now().Add(time.Minute).Unix(),
		Signature: "sig",
	}, nil
}

func writeTempFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// newGateway serves the upload endpoint. reject lists file names to refuse;
// block lists file names whose requests hang until the client gives up.
func newGateway(t *testing.T, reject, block map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			// a cancelled client aborts the body mid-stream
			return
		}
		if r.FormValue("token") == "" || r.FormValue("signature") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid upload credential"})
			return
		}
		name := r.FormValue("fileName")
		if block[name] {
			<-r.Context().Done()
			return
		}
		if reject[name] {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "upload body must not be empty"})
			return
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(AssetDescriptor{
			FileID: "stored-" + name,
			URL:    "https://media.example.com/media/stored-" + name,
			Width:  8,
			Height: 6,
			Size:   header.Size,
		})
	}))
}

func TestAddFilesScreening(t *testing.T) {
	dir := t.TempDir()
	good := writeTempFile(t, dir, "good.jpg", 128)
	wrongType := writeTempFile(t, dir, "notes.txt", 64)
	tooBig := writeTempFile(t, dir, "huge.png", 2048)

	b := NewBatch(staticCredentials{}, "http://unused", WithMaxFileSize(1024))

	added, rejected, err := b.AddFiles(good, wrongType, tooBig, filepath.Join(dir, "missing.jpg"))
	require.NoError(t, err)

	assert.Len(t, added, 1)
	require.Len(t, rejected, 3)
	reasons := map[string]string{}
	for _, r := range rejected {
		reasons[filepath.Base(r.Path)] = r.Reason
	}
	assert.Contains(t, reasons["notes.txt"], "not allowed")
	assert.Contains(t, reasons["huge.png"], "limit")
	assert.Contains(t, reasons["missing.jpg"], "unreadable")
}

func TestAddFilesBatchCeilingRefusesWholeAddition(t *testing.T) {
	dir := t.TempDir()
	first := writeTempFile(t, dir, "a.jpg", 600)
	second := writeTempFile(t, dir, "b.jpg", 300)
	third := writeTempFile(t, dir, "c.jpg", 300)

	b := NewBatch(staticCredentials{}, "http://unused", WithMaxBatchSize(1000))

	added, _, err := b.AddFiles(first)
	require.NoError(t, err)
	require.Len(t, added, 1)

	_, _, err = b.AddFiles(second, third)
	require.Error(t, err, "600+300+300 exceeds the 1000 byte ceiling")
	assert.Len(t, b.Statuses(), 1, "a refused addition leaves the batch unchanged")

	added, _, err = b.AddFiles(second)
	require.NoError(t, err, "a smaller addition that fits is accepted afterwards")
	assert.Len(t, added, 1)
}

func TestBatchPartialSuccess(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTempFile(t, dir, "one.jpg", 256),
		writeTempFile(t, dir, "bad.jpg", 256),
		writeTempFile(t, dir, "three.jpg", 256),
	}

	gw := newGateway(t, map[string]bool{"bad.jpg": true}, nil)
	defer gw.Close()

	b := NewBatch(staticCredentials{}, gw.URL)
	added, _, err := b.AddFiles(paths...)
	require.NoError(t, err)
	require.Len(t, added, 3)

	b.StartAll(context.Background())
	b.Wait()

	assets := b.Descriptors()
	require.Len(t, assets, 2, "one failure must not hide the successes")
	assert.Equal(t, "stored-one.jpg", assets[0].FileID)
	assert.Equal(t, "stored-three.jpg", assets[1].FileID)

	st, ok := b.StatusOf(added[1])
	require.True(t, ok)
	assert.Equal(t, StateFailed, st.State)
	assert.Contains(t, st.Reason, "upload body must not be empty")
}

func TestCancelIsolatesSiblings(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeTempFile(t, dir, "one.jpg", 256),
		writeTempFile(t, dir, "stuck.jpg", 256),
		writeTempFile(t, dir, "three.jpg", 256),
	}

	gw := newGateway(t, nil, map[string]bool{"stuck.jpg": true})
	defer gw.Close()

	b := NewBatch(staticCredentials{}, gw.URL)
	added, _, err := b.AddFiles(paths...)
	require.NoError(t, err)

	b.StartAll(context.Background())

	stuckID := added[1]
	require.Eventually(t, func() bool {
		st, _ := b.StatusOf(stuckID)
		return st.State == StateUploading
	}, 5*time.Second, 10*time.Millisecond)

	b.Cancel(stuckID)
	b.Wait()

	st, _ := b.StatusOf(stuckID)
	assert.Equal(t, StateCancelled, st.State)

	for _, id := range []string{added[0], added[2]} {
		st, _ := b.StatusOf(id)
		assert.Equal(t, StateUploaded, st.State, "cancelling one file must not touch its siblings")
	}
	assert.Len(t, b.Descriptors(), 2)
}

func TestCancelBeforeStart(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "pending.jpg", 64)

	b := NewBatch(staticCredentials{}, "http://unused")
	added, _, err := b.AddFiles(path)
	require.NoError(t, err)

	b.Cancel(added[0])

	st, _ := b.StatusOf(added[0])
	assert.Equal(t, StateCancelled, st.State)
	require.Error(t, b.Start(context.Background(), added[0]), "a cancelled file cannot be restarted")
}

func TestProgressIsMonotonic(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "big.jpg", 512<<10)

	gw := newGateway(t, nil, nil)
	defer gw.Close()

	b := NewBatch(staticCredentials{}, gw.URL)
	added, _, err := b.AddFiles(path)
	require.NoError(t, err)

	var mu sync.Mutex
	var progress []int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev := <-b.Events():
				if ev.State == StateUploading || ev.State == StateUploaded {
					mu.Lock()
					progress = append(progress, ev.Progress)
					mu.Unlock()
				}
				if ev.State.Terminal() {
					return
				}
			case <-time.After(5 * time.Second):
				return
			}
		}
	}()

	b.StartAll(context.Background())
	b.Wait()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, progress)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1], "progress must never move backwards")
	}
	assert.Equal(t, 100, progress[len(progress)-1])

	st, _ := b.StatusOf(added[0])
	assert.Equal(t, StateUploaded, st.State)
	assert.Equal(t, 100, st.Progress)
}

func TestCredentialFailureFailsOnlyThatFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "one.jpg", 64)

	b := NewBatch(staticCredentials{err: fmt.Errorf("upload-auth: status 500")}, "http://unused")
	added, _, err := b.AddFiles(path)
	require.NoError(t, err)

	b.StartAll(context.Background())
	b.Wait()

	st, _ := b.StatusOf(added[0])
	assert.Equal(t, StateFailed, st.State)
	assert.Contains(t, st.Reason, "upload-auth")
	assert.Empty(t, b.Descriptors())
}

func TestExpiredCredentialRejectedByGateway(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "late.jpg", 64)

	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid upload credential"})
	}))
	defer gw.Close()

	b := NewBatch(staticCredentials{}, gw.URL)
	added, _, err := b.AddFiles(path)
	require.NoError(t, err)

	b.StartAll(context.Background())
	b.Wait()

	st, _ := b.StatusOf(added[0])
	assert.Equal(t, StateFailed, st.State)
	assert.Contains(t, st.Reason, "invalid upload credential")
}
