package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mmeshcher/storefront/internal/model"
)

// echoDraft возвращает принятый черновик товара в конверте.
func echoDraft(w http.ResponseWriter, r *http.Request) {
	var draft model.Product
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(model.Success("product created", draft.WithID("prod-1")))
}

func gzipped(t *testing.T, s string) io.Reader {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return &buf
}

func TestGzipMiddleware(t *testing.T) {
	const draft = `{"name":"Esmalte Rojo","price":15000,"quantity":5}`

	tests := []struct {
		name           string
		compressBody   bool
		acceptGzip     bool
		wantStatus     int
		wantEncoding   string
		wantDecodeName string
	}{
		{name: "plain request, plain response", wantStatus: http.StatusOK, wantDecodeName: "Esmalte Rojo"},
		{name: "plain request, gzip response", acceptGzip: true, wantStatus: http.StatusOK, wantEncoding: "gzip", wantDecodeName: "Esmalte Rojo"},
		{name: "gzip request, plain response", compressBody: true, wantStatus: http.StatusOK, wantDecodeName: "Esmalte Rojo"},
		{name: "gzip both ways", compressBody: true, acceptGzip: true, wantStatus: http.StatusOK, wantEncoding: "gzip", wantDecodeName: "Esmalte Rojo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = strings.NewReader(draft)
			req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
			if tt.compressBody {
				body = gzipped(t, draft)
				req.Header.Set("Content-Encoding", "gzip")
			}
			req.Body = io.NopCloser(body)
			if tt.acceptGzip {
				req.Header.Set("Accept-Encoding", "gzip")
			}

			w := httptest.NewRecorder()
			GzipMiddleware(http.HandlerFunc(echoDraft)).ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status: got %d want %d", res.StatusCode, tt.wantStatus)
			}
			if ce := res.Header.Get("Content-Encoding"); ce != tt.wantEncoding {
				t.Fatalf("content-encoding: got %q want %q", ce, tt.wantEncoding)
			}

			reader := io.Reader(res.Body)
			if tt.wantEncoding == "gzip" {
				zr, err := gzip.NewReader(res.Body)
				if err != nil {
					t.Fatalf("new gzip reader: %v", err)
				}
				defer zr.Close()
				reader = zr
			}

			var resp model.Response[model.Product]
			if err := json.NewDecoder(reader).Decode(&resp); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if !resp.OK || len(resp.Data) != 1 || resp.Data[0].Name != tt.wantDecodeName {
				t.Fatalf("unexpected envelope: %+v", resp)
			}
		})
	}
}

func TestGzipMiddleware_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")

	w := httptest.NewRecorder()
	GzipMiddleware(http.HandlerFunc(echoDraft)).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGzipMiddleware_NoContent(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/products/prod-1", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	w := httptest.NewRecorder()
	GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(w, req)

	if ce := w.Header().Get("Content-Encoding"); ce != "" {
		t.Fatalf("content-encoding for 204: got %q want empty", ce)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("body for 204 must be empty, got %d bytes", w.Body.Len())
	}
}
