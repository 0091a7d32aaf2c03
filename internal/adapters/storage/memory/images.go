package memory

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ImageStore guarda imágenes en memoria y las sirve por HTTP (modo dev).
type ImageStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]object
}

type object struct {
	data        []byte
	contentType string
	storedAt    time.Time
}

// NewImageStore: baseURL es el prefijo público donde se monta ServeHTTP (p.ej. "/uploads").
func NewImageStore(baseURL string) *ImageStore {
	return &ImageStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]object),
	}
}

func (s *ImageStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.objects[key] = object{data: buf.Bytes(), contentType: contentType, storedAt: time.Now()}
	s.mu.Unlock()

	return s.baseURL + "/" + key, nil
}

// ServeHTTP sirve la imagen cuya key es el path del request (sin "/" inicial).
func (s *ImageStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")

	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", obj.contentType)
	http.ServeContent(w, r, key, obj.storedAt, bytes.NewReader(obj.data))
}
