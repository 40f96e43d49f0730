package catalogsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vulntor/uaparser/pkg/uaparser"
)

const specV2 = "version: 2.0.0\nos_parsers:\n  - regex: '(Haiku)/(\\d+)'\n"
const specV1 = "version: 1.5.0\nos_parsers:\n  - regex: '(BeOS)'\n"

type bytesSource []byte

func (b bytesSource) Load(context.Context) ([]byte, error) { return b, nil }

func TestFileSource_Load(t *testing.T) {
	_, err := FileSource{Path: ""}.Load(context.Background())
	if err == nil {
		t.Fatalf("expected error for empty path")
	}
	dir := t.TempDir()
	p := filepath.Join(dir, "regexes.yaml")
	if err := os.WriteFile(p, []byte(specV1), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := FileSource{Path: p}.Load(context.Background())
	if err != nil || len(b) == 0 {
		t.Fatalf("expected bytes, err=%v", err)
	}
}

func TestFileStore_SaveAndCurrent(t *testing.T) {
	err := FileStore{Path: ""}.Save(context.Background(), []byte("x"))
	if err == nil {
		t.Fatalf("expected error for empty path")
	}
	dir := t.TempDir()
	p := filepath.Join(dir, "out", uaparser.CatalogFileName)
	store := FileStore{Path: p}
	if _, err := store.Current(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist before save, got %v", err)
	}
	if err := store.Save(context.Background(), []byte(specV1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Current(context.Background())
	if err != nil || string(got) != specV1 {
		t.Fatalf("unexpected content %q, err=%v", got, err)
	}

	entries, err := os.ReadDir(filepath.Dir(p))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestHTTPSource_Load(t *testing.T) {
	if _, err := (HTTPSource{URL: ""}).Load(context.Background()); err == nil {
		t.Fatalf("expected error for empty url")
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(specV2))
	}))
	defer ts.Close()
	if b, err := (HTTPSource{URL: ts.URL}).Load(context.Background()); err != nil || len(b) == 0 {
		t.Fatalf("expected ok, err=%v", err)
	}
	if _, err := (HTTPSource{URL: ts.URL, MaxBytes: 8}).Load(context.Background()); err == nil {
		t.Fatalf("expected size limit error")
	}
	ts2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts2.Close()
	if _, err := (HTTPSource{URL: ts2.URL}).Load(context.Background()); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestService_SyncWritesAndReloads(t *testing.T) {
	dir := t.TempDir()
	parser := uaparser.New(nil)
	svc := Service{Source: bytesSource(specV2), CacheDir: dir, Parser: parser}

	res, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Previous != nil {
		t.Fatalf("expected no previous version, got %s", res.Previous)
	}
	if res.RuleSet.VersionString() != "2.0.0" {
		t.Fatalf("unexpected version %q", res.RuleSet.VersionString())
	}
	if parser.RuleSet() != res.RuleSet {
		t.Fatalf("parser was not reloaded")
	}
	if got := parser.Parse("Haiku/1").OS.Family; got != "Haiku" {
		t.Fatalf("expected Haiku, got %q", got)
	}

	rs, err := uaparser.LoadCatalog("", dir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if rs.Source() != filepath.Join(dir, uaparser.CatalogFileName) {
		t.Fatalf("expected cached catalog, got source %q", rs.Source())
	}
}

func TestService_RefusesDowngradeUnlessForced(t *testing.T) {
	dir := t.TempDir()
	if _, err := (Service{Source: bytesSource(specV2), CacheDir: dir}).Sync(context.Background()); err != nil {
		t.Fatalf("sync v2: %v", err)
	}

	_, err := Service{Source: bytesSource(specV1), CacheDir: dir}.Sync(context.Background())
	if !errors.Is(err, ErrDowngrade) {
		t.Fatalf("expected downgrade error, got %v", err)
	}

	res, err := Service{Source: bytesSource(specV1), CacheDir: dir, Force: true}.Sync(context.Background())
	if err != nil {
		t.Fatalf("forced sync: %v", err)
	}
	if res.Previous == nil || res.Previous.String() != "2.0.0" {
		t.Fatalf("expected previous 2.0.0, got %v", res.Previous)
	}
}

func TestService_RejectsInvalidSpecification(t *testing.T) {
	dir := t.TempDir()
	bad := bytesSource("os_parsers:\n  - regex: '(a+)+'\n")
	_, err := Service{Source: bad, CacheDir: dir}.Sync(context.Background())
	if !errors.Is(err, uaparser.ErrUnsafePattern) {
		t.Fatalf("expected unsafe pattern error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, uaparser.CatalogFileName)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("invalid catalog must not be stored")
	}
}

func TestService_Configuration(t *testing.T) {
	if _, err := (Service{CacheDir: t.TempDir()}).Sync(context.Background()); err == nil {
		t.Fatalf("expected error without source")
	}
	_, err := Service{Source: bytesSource(specV1)}.Sync(context.Background())
	if !errors.Is(err, uaparser.ErrStorageDisabled) {
		t.Fatalf("expected storage disabled, got %v", err)
	}
}
