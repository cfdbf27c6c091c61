// Package objectstore adapts local-filesystem and S3-compatible object
// storage to capability.ObjectStorePort (spec §4.1), backing generated and
// uploaded media.
package objectstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// LocalConfig configures a filesystem-backed object store.
type LocalConfig struct {
	// RootDir is the directory objects are written under.
	RootDir string `yaml:"root_dir"`
	// BaseURL is prefixed to keys for SignedURL (no real expiry — local
	// development only).
	BaseURL string `yaml:"base_url,omitempty"`
}

// Local implements capability.ObjectStorePort over the local filesystem.
// Intended for development; SignedURL has no real expiry enforcement since
// there is no separate serving process to check it.
type Local struct {
	root    string
	baseURL string
}

func NewLocal(cfg LocalConfig) (*Local, error) {
	root := cfg.RootDir
	if root == "" {
		root = ".agentforge/objects"
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "objectstore: create root dir", err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(cfg.BaseURL, "/")}, nil
}

func (l *Local) Put(ctx context.Context, key string, content []byte, mimeType string) (string, error) {
	full := filepath.Join(l.root, sanitizeKey(key))
	if filepath.Ext(full) == "" {
		full += extensionFor(mimeType)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "objectstore: create parent dir", err)
	}
	if err := os.WriteFile(full, content, 0644); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "objectstore: write object", err)
	}
	return "file://" + full, nil
}

func (l *Local) Get(ctx context.Context, uri string) ([]byte, string, error) {
	path := strings.TrimPrefix(uri, "file://")
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindNotFound, "objectstore: read object", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	return content, mimeType, nil
}

func (l *Local) Delete(ctx context.Context, uri string) error {
	path := strings.TrimPrefix(uri, "file://")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.KindInternal, "objectstore: delete object", err)
	}
	return nil
}

func (l *Local) SignedURL(ctx context.Context, uri string, expiry int) (string, error) {
	path := strings.TrimPrefix(uri, "file://")
	if l.baseURL == "" {
		return uri, nil
	}
	return fmt.Sprintf("%s/%s?exp=%d", l.baseURL, filepath.Base(path), time.Now().Add(time.Duration(expiry)*time.Second).Unix()), nil
}

func sanitizeKey(key string) string {
	h := sha256.Sum256([]byte(key))
	dir := hex.EncodeToString(h[:1])
	return filepath.Join(dir, filepath.Base(filepath.Clean("/"+key)))
}

func extensionFor(mimeType string) string {
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

var _ capability.ObjectStorePort = (*Local)(nil)
