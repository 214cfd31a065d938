// Package uploader drives concurrent direct-to-storage uploads from one
// user action. Every file runs its own state machine and its own transfer
// goroutine; cancelling one never touches its siblings. The files map is
// the single source of truth, guarded by one mutex; the events channel is
// a best-effort notification stream for progress display.
package uploader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cms_server/server/common/uploadsig"
)

type State string

const (
	StateSelected             State = "selected"
	StateRequestingCredential State = "requesting_credential"
	StateUploading            State = "uploading"
	StateUploaded             State = "uploaded"
	StateFailed               State = "failed"
	StateCancelled            State = "cancelled"
)

func (s State) Terminal() bool {
	return s == StateUploaded || s == StateFailed || s == StateCancelled
}

// AssetDescriptor is the result of one successful upload, as returned by
// the media gateway.
type AssetDescriptor struct {
	FileID string `json:"fileId"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

type Event struct {
	FileID   string
	Name     string
	State    State
	Progress int
	Reason   string
}

type Rejection struct {
	Path   string
	Reason string
}

type Status struct {
	FileID     string
	Name       string
	Size       int64
	State      State
	Progress   int
	Reason     string
	Descriptor *AssetDescriptor
}

// CredentialSource issues one short-lived upload credential per transfer.
type CredentialSource interface {
	UploadCredential(ctx context.Context) (uploadsig.Credential, error)
}

const (
	defaultMaxFileSize  = 25 << 20
	defaultMaxBatchSize = 200 << 20
	credentialTimeout   = 10 * time.Second
	defaultEventBuffer  = 64
)

var defaultAllowedExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

type file struct {
	id         string
	path       string
	name       string
	size       int64
	state      State
	progress   int
	reason     string
	descriptor *AssetDescriptor
	cancel     context.CancelFunc
}

type Batch struct {
	mu        sync.Mutex
	files     map[string]*file
	order     []string
	totalSize int64

	creds     CredentialSource
	uploadURL string
	httpc     *http.Client
	events    chan Event

	maxFileSize  int64
	maxBatchSize int64
	allowedExts  map[string]struct{}

	wg sync.WaitGroup
}

type Option func(*Batch)

func WithMaxFileSize(n int64) Option  { return func(b *Batch) { b.maxFileSize = n } }
func WithMaxBatchSize(n int64) Option { return func(b *Batch) { b.maxBatchSize = n } }

func WithAllowedExtensions(exts ...string) Option {
	return func(b *Batch) {
		b.allowedExts = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			b.allowedExts[strings.ToLower(ext)] = struct{}{}
		}
	}
}

func WithHTTPClient(c *http.Client) Option { return func(b *Batch) { b.httpc = c } }

func NewBatch(creds CredentialSource, uploadURL string, opts ...Option) *Batch {
	b := &Batch{
		files:        make(map[string]*file),
		creds:        creds,
		uploadURL:    uploadURL,
		httpc:        http.DefaultClient,
		events:       make(chan Event, defaultEventBuffer),
		maxFileSize:  defaultMaxFileSize,
		maxBatchSize: defaultMaxBatchSize,
	}
	WithAllowedExtensions(defaultAllowedExts...)(b)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddFiles screens candidates against the per-file size ceiling and the
// content-type allow-list; failing files are rejected with a reason and do
// not enter the batch. If accepting the remainder would push the batch past
// its total ceiling the whole addition is refused and the batch is left
// unchanged.
func (b *Batch) AddFiles(paths ...string) (added []string, rejected []Rejection, err error) {
	type candidate struct {
		path string
		name string
		size int64
	}
	accepted := make([]candidate, 0, len(paths))
	var addedSize int64

	for _, path := range paths {
		info, statErr := os.Stat(path)
		if statErr != nil {
			rejected = append(rejected, Rejection{Path: path, Reason: fmt.Sprintf("unreadable: %v", statErr)})
			continue
		}
		if info.IsDir() {
			rejected = append(rejected, Rejection{Path: path, Reason: "is a directory"})
			continue
		}
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := b.allowedExts[ext]; !ok {
			rejected = append(rejected, Rejection{Path: path, Reason: fmt.Sprintf("file type %q is not allowed", ext)})
			continue
		}
		if info.Size() > b.maxFileSize {
			rejected = append(rejected, Rejection{Path: path, Reason: fmt.Sprintf("file exceeds %d byte limit", b.maxFileSize)})
			continue
		}
		accepted = append(accepted, candidate{path: path, name: filepath.Base(path), size: info.Size()})
		addedSize += info.Size()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.totalSize+addedSize > b.maxBatchSize {
		return nil, rejected, fmt.Errorf("adding %d bytes would exceed the %d byte batch limit", addedSize, b.maxBatchSize)
	}
	for _, c := range accepted {
		f := &file{id: uuid.NewString(), path: c.path, name: c.name, size: c.size, state: StateSelected}
		b.files[f.id] = f
		b.order = append(b.order, f.id)
		added = append(added, f.id)
	}
	b.totalSize += addedSize
	return added, rejected, nil
}

// Start launches one file's transfer. Transfers are independent; no
// ordering holds between siblings.
func (b *Batch) Start(ctx context.Context, id string) error {
	b.mu.Lock()
	f, ok := b.files[id]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("unknown file id %s", id)
	}
	if f.state != StateSelected {
		b.mu.Unlock()
		return fmt.Errorf("file %s already started", id)
	}
	fileCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.state = StateRequestingCredential
	b.mu.Unlock()

	b.emit(Event{FileID: id, Name: f.name, State: StateRequestingCredential})
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()
		b.run(fileCtx, f)
	}()
	return nil
}

func (b *Batch) StartAll(ctx context.Context) {
	b.mu.Lock()
	ids := make([]string, 0, len(b.order))
	for _, id := range b.order {
		if b.files[id].state == StateSelected {
			ids = append(ids, id)
		}
	}
	b.mu.Unlock()

	for _, id := range ids {
		_ = b.Start(ctx, id)
	}
}

// Cancel aborts one transfer, or removes a not-yet-started file from the
// pending set. Files that already reached a terminal state are untouched.
func (b *Batch) Cancel(id string) {
	b.mu.Lock()
	f, ok := b.files[id]
	if !ok || f.state.Terminal() {
		b.mu.Unlock()
		return
	}
	if f.state == StateSelected {
		f.state = StateCancelled
		b.mu.Unlock()
		b.emit(Event{FileID: id, Name: f.name, State: StateCancelled})
		return
	}
	cancel := f.cancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// CancelAll aborts every in-flight transfer and marks pending files
// cancelled. Uploaded files keep their descriptors; bytes already stored
// stay stored, only tracking state is affected.
func (b *Batch) CancelAll() {
	b.mu.Lock()
	ids := make([]string, 0, len(b.order))
	for _, id := range b.order {
		if !b.files[id].state.Terminal() {
			ids = append(ids, id)
		}
	}
	b.mu.Unlock()

	for _, id := range ids {
		b.Cancel(id)
	}
}

// Wait blocks until every started transfer reaches a terminal state.
// Callers must Wait before building a submission payload.
func (b *Batch) Wait() {
	b.wg.Wait()
}

// Descriptors returns the assets of every uploaded file in selection order.
// Failed and cancelled files are simply excluded; partial success is an
// expected outcome and the caller submits what landed.
func (b *Batch) Descriptors() []AssetDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]AssetDescriptor, 0, len(b.order))
	for _, id := range b.order {
		f := b.files[id]
		if f.state == StateUploaded && f.descriptor != nil {
			out = append(out, *f.descriptor)
		}
	}
	return out
}

func (b *Batch) StatusOf(id string) (Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.files[id]
	if !ok {
		return Status{}, false
	}
	return f.status(), true
}

func (b *Batch) Statuses() []Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Status, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.files[id].status())
	}
	return out
}

func (b *Batch) Events() <-chan Event {
	return b.events
}

func (f *file) status() Status {
	return Status{
		FileID:     f.id,
		Name:       f.name,
		Size:       f.size,
		State:      f.state,
		Progress:   f.progress,
		Reason:     f.reason,
		Descriptor: f.descriptor,
	}
}

func (b *Batch) run(ctx context.Context, f *file) {
	credCtx, cancel := context.WithTimeout(ctx, credentialTimeout)
	cred, err := b.creds.UploadCredential(credCtx)
	cancel()
	if err != nil {
		b.finish(f, err, nil)
		return
	}

	b.mu.Lock()
	if f.state.Terminal() {
		b.mu.Unlock()
		return
	}
	f.state = StateUploading
	b.mu.Unlock()
	b.emit(Event{FileID: f.id, Name: f.name, State: StateUploading, Progress: 0})

	asset, err := b.transfer(ctx, f, cred)
	b.finish(f, err, asset)
}

// finish applies the terminal transition exactly once. A cancellation that
// races a just-completed upload resolves to whichever terminal state landed
// first, never both.
func (b *Batch) finish(f *file, err error, asset *AssetDescriptor) {
	state := StateUploaded
	reason := ""
	if err == nil && asset == nil {
		err = fmt.Errorf("upload produced no descriptor")
	}
	if err != nil {
		if isCancellation(err) {
			state = StateCancelled
		} else {
			state = StateFailed
			reason = err.Error()
		}
	}

	b.mu.Lock()
	if f.state.Terminal() {
		b.mu.Unlock()
		return
	}
	f.state = state
	f.reason = reason
	if state == StateUploaded {
		f.progress = 100
		f.descriptor = asset
	}
	b.mu.Unlock()

	b.emit(Event{FileID: f.id, Name: f.name, State: state, Progress: f.progress, Reason: reason})
}

func isCancellation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), context.Canceled.Error())
}

// transfer streams the file as a multipart POST carrying the credential
// fields. Progress tracks bytes handed to the transport, capped at 99 until
// the gateway acknowledges the upload.
func (b *Batch) transfer(ctx context.Context, f *file, cred uploadsig.Credential) (*AssetDescriptor, error) {
	src, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer src.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	counting := &countingReader{r: src, total: f.size, report: func(pct int) { b.reportProgress(f, pct) }}

	go func() {
		writeErr := func() error {
			if err := mw.WriteField("token", cred.Token); err != nil {
				return err
			}
			if err := mw.WriteField("expire", strconv.FormatInt(cred.Expire, 10)); err != nil {
				return err
			}
			if err := mw.WriteField("signature", cred.Signature); err != nil {
				return err
			}
			if err := mw.WriteField("fileName", f.name); err != nil {
				return err
			}
			part, err := mw.CreateFormFile("file", f.name)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, counting); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(writeErr)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.uploadURL, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("upload rejected: %s", e.Error)
	}

	var asset AssetDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&asset); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &asset, nil
}

// reportProgress bumps a file's progress, never backwards and never past 99
// before the terminal transition sets 100.
func (b *Batch) reportProgress(f *file, pct int) {
	if pct > 99 {
		pct = 99
	}
	b.mu.Lock()
	if f.state != StateUploading || pct <= f.progress {
		b.mu.Unlock()
		return
	}
	f.progress = pct
	b.mu.Unlock()
	b.emit(Event{FileID: f.id, Name: f.name, State: StateUploading, Progress: pct})
}

// emit never blocks; a slow consumer loses notifications, not uploads.
func (b *Batch) emit(ev Event) {
	select {
	case b.events <- ev:
	default:
	}
}

type countingReader struct {
	r      io.Reader
	read   int64
	total  int64
	report func(pct int)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.read += int64(n)
		if c.total > 0 {
			c.report(int(c.read * 100 / c.total))
		}
	}
	return n, err
}
