package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"subkeep/internal/api"
	"subkeep/internal/auth"
	"subkeep/internal/backup"
	"subkeep/internal/models"
	"subkeep/internal/store"
)

type fakeRunner struct {
	actions []backup.Action
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, action backup.Action) error {
	f.actions = append(f.actions, action)
	return f.err
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "subkeep.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestServer(t *testing.T, runner BackupRunner) (*Server, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	srv := New(Options{
		Addr:     "127.0.0.1:0",
		DBPath:   "test.db",
		Store:    st,
		Backup:   runner,
		Migrator: store.NewMigrator(st, nil),
	})
	return srv, st
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	case []byte:
		reader = bytes.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var errResp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, w.Body.String())
	}
	return errResp
}

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:7334")
		if err != nil {
			t.Fatalf("expected loopback to be allowed, got error: %v", err)
		}
		if addr != "127.0.0.1:7334" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		if _, err := ListenAddr("http://0.0.0.0:7334"); err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:7334")
		if err != nil {
			t.Fatalf("expected allow-remote to permit host, got error: %v", err)
		}
		if addr != "0.0.0.0:7334" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})
}

func TestWithAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("open when nothing configured", func(t *testing.T) {
		srv := &Server{}
		w := doRequest(t, srv.withAuth(next), http.MethodGet, "/api/subs", nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})

	t.Run("denies missing auth", func(t *testing.T) {
		srv := &Server{verifier: auth.NewVerifier("token", "")}
		w := doRequest(t, srv.withAuth(next), http.MethodGet, "/api/subs", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if errResp := decodeError(t, w); errResp.ErrorCode != ErrCodeUnauthorized {
			t.Fatalf("expected error_code %d, got %d", ErrCodeUnauthorized, errResp.ErrorCode)
		}
	})

	t.Run("health stays open", func(t *testing.T) {
		srv := &Server{verifier: auth.NewVerifier("token", "")}
		w := doRequest(t, srv.withAuth(next), http.MethodGet, "/health", nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})

	t.Run("allows plain and hashed tokens", func(t *testing.T) {
		hash, err := auth.HashToken("hashed-token-value-1")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		srv := &Server{verifier: auth.NewVerifier("token", hash)}
		for _, token := range []string{"token", "hashed-token-value-1"} {
			req := httptest.NewRequest(http.MethodGet, "/api/subs", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			srv.withAuth(next).ServeHTTP(w, req)
			if w.Code != http.StatusNoContent {
				t.Fatalf("token %q: expected 204, got %d", token, w.Code)
			}
		}
	})
}

func TestSubscriptionCRUD(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{})
	h := srv.routes()

	w := doRequest(t, h, http.MethodPost, "/api/subs", map[string]any{
		"name": "airport",
		"url":  "https://example.com/sub",
		"tags": []string{"a", " a ", "b"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var created models.Subscription
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Source != models.SourceRemote {
		t.Fatalf("expected remote source default, got %q", created.Source)
	}
	if len(created.Tags) != 2 || created.Process == nil {
		t.Fatalf("expected normalized tags and process, got %+v", created)
	}

	w = doRequest(t, h, http.MethodPost, "/api/subs", map[string]any{"name": "airport", "source": "local"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", w.Code)
	}
	if decodeError(t, w).ErrorCode != ErrCodeNameExists {
		t.Fatal("expected name-exists code")
	}

	w = doRequest(t, h, http.MethodPatch, "/api/sub/airport", map[string]any{"name": "renamed", "displayName": "Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on patch, got %d (%s)", w.Code, w.Body.String())
	}
	var patched models.Subscription
	if err := json.Unmarshal(w.Body.Bytes(), &patched); err != nil {
		t.Fatalf("decode patch: %v", err)
	}
	if patched.Name != "renamed" || patched.URL != "https://example.com/sub" || patched.DisplayName != "Renamed" {
		t.Fatalf("unexpected patched record %+v", patched)
	}

	if w := doRequest(t, h, http.MethodGet, "/api/sub/airport", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected old name gone, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/api/subs", nil)
	var list []models.Subscription
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "renamed" {
		t.Fatalf("unexpected list %+v", list)
	}

	if w := doRequest(t, h, http.MethodDelete, "/api/sub/renamed", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", w.Code)
	}
	w = doRequest(t, h, http.MethodDelete, "/api/sub/renamed", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
	if decodeError(t, w).ErrorCode != ErrCodeSubscriptionNotFound {
		t.Fatal("expected subscription not found code")
	}
}

func TestSubscriptionValidation(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{})
	h := srv.routes()

	cases := []struct {
		name string
		body any
		code int
	}{
		{name: "bad name", body: map[string]any{"name": "has space"}, code: ErrCodeInvalidName},
		{name: "remote without url", body: map[string]any{"name": "x", "source": "remote"}, code: ErrCodeMissingRequired},
		{name: "bad source", body: map[string]any{"name": "x", "source": "ftp"}, code: ErrCodeInvalidSource},
		{name: "relative url", body: map[string]any{"name": "x", "url": "/sub"}, code: ErrCodeInvalidArgument},
		{name: "operator without type", body: map[string]any{"name": "x", "process": []map[string]any{{"args": map[string]any{}}}}, code: ErrCodeMissingRequired},
		{name: "trailing json", body: `{"name":"a"}{"name":"b"}`, code: ErrCodeInvalidJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, "/api/subs", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
			}
			if got := decodeError(t, w).ErrorCode; got != tc.code {
				t.Fatalf("expected error_code %d, got %d", tc.code, got)
			}
		})
	}
}

func TestCollectionAndArtifact(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{})
	h := srv.routes()

	w := doRequest(t, h, http.MethodPost, "/api/collections", map[string]any{
		"name":          "all",
		"subscriptions": []string{"a", "b", "a"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var col models.Collection
	if err := json.Unmarshal(w.Body.Bytes(), &col); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(col.Subscriptions) != 2 {
		t.Fatalf("expected deduplicated members, got %v", col.Subscriptions)
	}

	w = doRequest(t, h, http.MethodPost, "/api/artifacts", map[string]any{"name": "clash", "type": "col", "source": "all"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var artifact models.Artifact
	if err := json.Unmarshal(w.Body.Bytes(), &artifact); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if artifact.Type != models.ArtifactCollection {
		t.Fatalf("expected legacy type mapped, got %q", artifact.Type)
	}

	w = doRequest(t, h, http.MethodPost, "/api/artifacts", map[string]any{"name": "bad", "type": "rule", "source": "all"})
	if w.Code != http.StatusBadRequest || decodeError(t, w).ErrorCode != ErrCodeInvalidType {
		t.Fatalf("expected invalid type, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodPatch, "/api/artifact/clash", map[string]any{"sync": true, "platform": "clash"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if w := doRequest(t, h, http.MethodGet, "/api/collection/missing", nil); w.Code != http.StatusNotFound || decodeError(t, w).ErrorCode != ErrCodeCollectionNotFound {
		t.Fatalf("expected collection not found, got %d", w.Code)
	}
}

func TestSettingsMaskToken(t *testing.T) {
	srv, st := newTestServer(t, &fakeRunner{})
	h := srv.routes()

	if err := st.WriteSettings(context.Background(), models.Settings{SyncTime: 77}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	w := doRequest(t, h, http.MethodPatch, "/api/settings", map[string]any{"gistToken": "ghp_abcdefgh1234", "syncTime": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodGet, "/api/settings", nil)
	var got models.Settings
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.GistToken != "************1234" {
		t.Fatalf("expected masked token, got %q", got.GistToken)
	}
	if got.SyncTime != 77 {
		t.Fatalf("expected syncTime untouched by patch, got %d", got.SyncTime)
	}

	stored, err := st.ReadSettings(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if stored.GistToken != "ghp_abcdefgh1234" {
		t.Fatalf("expected stored token in clear, got %q", stored.GistToken)
	}

	if w := doRequest(t, h, http.MethodPatch, "/api/settings", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on empty patch, got %d", w.Code)
	}
}

func TestStorageImportMigratesAndExport(t *testing.T) {
	srv, st := newTestServer(t, &fakeRunner{})
	h := srv.routes()

	legacy := `{"settings":{"githubUser":"me"},"subs":[{"name":"old","url":"https://example.com"}],"artifacts":[{"name":"a","type":"sub","source":"old"}]}`
	w := doRequest(t, h, http.MethodPost, "/api/storage", legacy)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	artifact, err := st.GetArtifact(context.Background(), "a")
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	if artifact.Type != models.ArtifactSubscription {
		t.Fatalf("expected migrated artifact type, got %q", artifact.Type)
	}

	w = doRequest(t, h, http.MethodGet, "/api/storage", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	snap, err := models.DecodeSnapshot(w.Body.Bytes())
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if snap.Settings.SchemaVersion != store.LatestDataVersion() || snap.Settings.GithubUser != "me" {
		t.Fatalf("unexpected exported settings %+v", snap.Settings)
	}
}

func TestStorageImportRejectsInvalidBlob(t *testing.T) {
	srv, st := newTestServer(t, &fakeRunner{})
	h := srv.routes()
	if err := st.CreateSubscription(context.Background(), models.Subscription{Name: "keep", Source: models.SourceLocal}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := doRequest(t, h, http.MethodPost, "/api/storage", `{"subs":[{"name":"x"},{"name":"x"}]}`)
	if w.Code != http.StatusBadRequest || decodeError(t, w).ErrorCode != ErrCodeInvalidStorage {
		t.Fatalf("expected invalid storage, got %d (%s)", w.Code, w.Body.String())
	}
	if _, err := st.GetSubscription(context.Background(), "keep"); err != nil {
		t.Fatalf("expected existing state untouched: %v", err)
	}
}

func TestBackupEndpointMapsErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		status    int
		code      string
		errCode   int
		wantInMsg string
	}{
		{name: "success", status: http.StatusOK},
		{name: "missing token", err: &backup.Error{Code: backup.CodeGistTokenNotFound, Kind: backup.KindConfiguration, Reason: "backup credential is missing"}, status: http.StatusBadRequest, code: "GIST_TOKEN_NOT_FOUND", errCode: ErrCodeGistTokenNotFound},
		{name: "remote failure", err: &backup.Error{Code: backup.CodeBackupFailed, Kind: backup.KindBackupFailed, Reason: "upload failed", Err: errors.New("401 bad credentials")}, status: http.StatusBadGateway, code: "BACKUP_FAILED", errCode: ErrCodeBackupFailed, wantInMsg: "401 bad credentials"},
		{name: "migration failure", err: fmt.Errorf("%w: %w", backup.ErrMigration, errors.New("boom")), status: http.StatusInternalServerError, code: "internal", errCode: ErrCodeMigrationError, wantInMsg: "internal error"},
		{name: "settings read failure", err: fmt.Errorf("load settings: %w", errors.New("database is locked")), status: http.StatusInternalServerError, code: "internal", errCode: ErrCodeStoreFailure, wantInMsg: "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{err: tc.err}
			srv, _ := newTestServer(t, runner)
			w := doRequest(t, srv.routes(), http.MethodGet, "/api/utils/backup?action=upload", nil)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, w.Code, w.Body.String())
			}
			if len(runner.actions) != 1 || runner.actions[0] != backup.ActionUpload {
				t.Fatalf("expected one upload action, got %v", runner.actions)
			}
			if tc.err == nil {
				var resp api.StatusResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Status != "success" {
					t.Fatalf("unexpected success body %s", w.Body.String())
				}
				return
			}
			errResp := decodeError(t, w)
			if errResp.Code != tc.code || errResp.ErrorCode != tc.errCode {
				t.Fatalf("unexpected error response %+v", errResp)
			}
			if tc.wantInMsg != "" && !strings.Contains(errResp.Error, tc.wantInMsg) {
				t.Fatalf("expected %q in %q", tc.wantInMsg, errResp.Error)
			}
		})
	}
}

func TestBackupUnknownActionIsSuccess(t *testing.T) {
	runner := &fakeRunner{}
	srv, _ := newTestServer(t, runner)
	w := doRequest(t, srv.routes(), http.MethodPost, "/api/utils/backup?action=sync", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(runner.actions) != 1 || runner.actions[0] != backup.ActionNoop {
		t.Fatalf("expected noop action, got %v", runner.actions)
	}
}

func TestBackupUnknownActionSucceedsWhileBackupRuns(t *testing.T) {
	runner := &fakeRunner{}
	srv, _ := newTestServer(t, runner)
	srv.backupLimiter <- struct{}{}
	defer func() { <-srv.backupLimiter }()

	w := doRequest(t, srv.routes(), http.MethodGet, "/api/utils/backup?action=sync", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 while a backup holds the limiter, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Status != "success" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestBackupRejectsConcurrentRun(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{})
	srv.backupLimiter <- struct{}{}
	w := doRequest(t, srv.routes(), http.MethodGet, "/api/utils/backup?action=upload", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

type memRemote struct {
	docs map[string]string
}

func (m *memRemote) Upload(ctx context.Context, name, content string) error {
	m.docs[name] = content
	return nil
}

func (m *memRemote) Download(ctx context.Context, name string) (string, error) {
	content, ok := m.docs[name]
	if !ok {
		return "", errors.New("document not found")
	}
	return content, nil
}

func TestBackupThroughOrchestrator(t *testing.T) {
	st := newTestStore(t)
	remote := &memRemote{docs: map[string]string{}}
	orchestrator, err := backup.New(backup.Options{
		Store:        st,
		NewRemote:    func(string) (backup.Remote, error) { return remote, nil },
		Migrator:     store.NewMigrator(st, nil),
		DocumentName: "Sub-Store",
		Now:          func() time.Time { return time.UnixMilli(1_700_000_000_000) },
	})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	srv := New(Options{Store: st, Backup: orchestrator, Migrator: store.NewMigrator(st, nil)})
	h := srv.Handler()

	w := doRequest(t, h, http.MethodGet, "/api/utils/backup?action=upload", nil)
	if w.Code != http.StatusBadRequest || decodeError(t, w).Code != backup.CodeGistTokenNotFound {
		t.Fatalf("expected missing token, got %d (%s)", w.Code, w.Body.String())
	}

	doRequest(t, h, http.MethodPatch, "/api/settings", map[string]any{"gistToken": "tok"})
	doRequest(t, h, http.MethodPost, "/api/subs", map[string]any{"name": "s", "source": "local"})

	if w := doRequest(t, h, http.MethodGet, "/api/utils/backup?action=upload", nil); w.Code != http.StatusOK {
		t.Fatalf("expected upload success, got %d (%s)", w.Code, w.Body.String())
	}
	if _, ok := remote.docs["Sub-Store"]; !ok {
		t.Fatal("expected uploaded document")
	}

	doRequest(t, h, http.MethodDelete, "/api/sub/s", nil)
	if w := doRequest(t, h, http.MethodGet, "/api/utils/backup?action=download", nil); w.Code != http.StatusOK {
		t.Fatalf("expected download success, got %d (%s)", w.Code, w.Body.String())
	}
	if w := doRequest(t, h, http.MethodGet, "/api/sub/s", nil); w.Code != http.StatusOK {
		t.Fatalf("expected restored subscription, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/api/info", nil)
	var info api.InfoResponse
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.SyncTime != 1_700_000_000_000 || !info.GistConfigured || info.Subscriptions != 1 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.DataVersion != store.LatestDataVersion() {
		t.Fatalf("expected migrated data version, got %d", info.DataVersion)
	}
}
