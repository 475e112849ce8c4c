package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
)

const (
	tokenIssuer    = "spx-val-local-store"
	claimMethod    = "method"
	claimMediaType = "content_type"
)

var ErrInvalidToken = errors.New("invalid object token")

// LocalStore keeps objects on disk under root and serves them from baseURL.
// Signed URLs carry a v4.local PASETO token naming the object, the allowed
// method and, for uploads, the content type.
type LocalStore struct {
	root    string
	baseURL string
	key     paseto.V4SymmetricKey
	now     func() time.Time
}

var _ ObjectStore = (*LocalStore)(nil)

// NewLocalStore creates root if needed. An empty keyHex generates a key, so
// URLs signed before a restart stop verifying.
func NewLocalStore(root, baseURL, keyHex string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	key := paseto.NewV4SymmetricKey()
	if keyHex != "" {
		var err error
		key, err = paseto.V4SymmetricKeyFromHex(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid storage signing key: %w", err)
		}
	}

	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		now:     time.Now,
	}, nil
}

func (l *LocalStore) path(objectName string) (string, error) {
	name, err := cleanObjectName(objectName)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(name)), nil
}

func (l *LocalStore) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	dst, err := l.path(objectName)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, readerWithContext(ctx, reader))
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("failed to store object: %w", err)
	}

	return &UploadResult{
		ObjectName: objectName,
		PublicURL:  l.PublicURL(objectName),
		Size:       size,
	}, nil
}

func (l *LocalStore) DeleteFile(_ context.Context, objectName string) error {
	p, err := l.path(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, objectName)
		}
		return fmt.Errorf("failed to delete %s: %w", objectName, err)
	}
	return nil
}

func (l *LocalStore) ReadFile(_ context.Context, objectName string) (io.ReadCloser, error) {
	p, err := l.path(objectName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectName)
	}
	return f, err
}

func (l *LocalStore) GetSignedURL(objectName string, expiry time.Duration) (string, error) {
	return l.signedURL(objectName, "GET", "", expiry)
}

func (l *LocalStore) GetSignedUploadURL(objectName, contentType string, expiry time.Duration) (string, error) {
	return l.signedURL(objectName, "PUT", contentType, expiry)
}

func (l *LocalStore) signedURL(objectName, method, contentType string, expiry time.Duration) (string, error) {
	if _, err := cleanObjectName(objectName); err != nil {
		return "", err
	}

	now := l.now()
	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(objectName)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(expiry))
	token.SetString(claimMethod, method)
	token.SetString(claimMediaType, contentType)

	return l.PublicURL(objectName) + "?token=" + url.QueryEscape(token.V4Encrypt(l.key, nil)), nil
}

// VerifyToken checks a token taken from a signed URL against the request it
// arrived with.
func (l *LocalStore) VerifyToken(token, method, objectName, contentType string) error {
	parser := paseto.NewParser()
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.Subject(objectName))
	parser.AddRule(paseto.NotExpired())

	t, err := parser.ParseV4Local(l.key, token, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	m, err := t.GetString(claimMethod)
	if err != nil || m != method {
		return fmt.Errorf("%w: method %s not allowed", ErrInvalidToken, method)
	}
	if method == "PUT" {
		ct, err := t.GetString(claimMediaType)
		if err != nil || ct != contentType {
			return fmt.Errorf("%w: content type %q not allowed", ErrInvalidToken, contentType)
		}
	}
	return nil
}

func (l *LocalStore) PublicURL(objectName string) string {
	parts := strings.Split(objectName, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return l.baseURL + "/" + strings.Join(parts, "/")
}

func (l *LocalStore) Close() error {
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
