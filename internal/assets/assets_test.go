package assets

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"
)

var testFS = fstest.MapFS{
	"public/index.html":          {Data: []byte("<h1>map</h1>"), ModTime: time.Unix(1_700_000_000, 0)},
	"public/js/map.js":           {Data: []byte("console.log('map');")},
	"public/data/index.html":     {Data: []byte("<p>data</p>")},
	"public/data/cities.json":    {Data: []byte(`{"type":"FeatureCollection"}`)},
	"public/empty/.keep":         {},
	"public/nested/index.html/x": {Data: []byte("not an index")},
}

func TestHandler(t *testing.T) {
	h := NewHandler(testFS)

	testCases := []struct {
		Description     string
		Method          string
		Path            string
		Range           string
		WantCode        int
		WantContentType string
		WantBody        string
		WantLocation    string
	}{
		{
			Description:     "HTML document",
			Path:            "/public/index.html",
			WantCode:        http.StatusOK,
			WantContentType: "text/html; charset=utf-8",
			WantBody:        "<h1>map</h1>",
		},
		{
			Description: "script",
			Path:        "/public/js/map.js",
			WantCode:    http.StatusOK,
			WantBody:    "console.log('map');",
		},
		{
			Description:     "directory serves its index without redirecting",
			Path:            "/public/data/",
			WantCode:        http.StatusOK,
			WantContentType: "text/html; charset=utf-8",
			WantBody:        "<p>data</p>",
		},
		{
			Description:  "directory without trailing slash is redirected",
			Path:         "/public/data",
			WantCode:     http.StatusMovedPermanently,
			WantLocation: "data/",
		},
		{
			Description:  "redirect keeps the query",
			Path:         "/public/data?layer=cities",
			WantCode:     http.StatusMovedPermanently,
			WantLocation: "data/?layer=cities",
		},
		{
			Description:  "directory without index is redirected before lookup",
			Path:         "/public/empty",
			WantCode:     http.StatusMovedPermanently,
			WantLocation: "empty/",
		},
		{
			Description: "directory without index is not listed",
			Path:        "/public/empty/",
			WantCode:    http.StatusNotFound,
		},
		{
			Description: "index page that is a directory",
			Path:        "/public/nested/",
			WantCode:    http.StatusNotFound,
		},
		{
			Description: "missing file",
			Path:        "/public/missing.css",
			WantCode:    http.StatusNotFound,
		},
		{
			Description:     "HEAD",
			Method:          http.MethodHead,
			Path:            "/public/data/cities.json",
			WantCode:        http.StatusOK,
			WantContentType: "application/json",
		},
		{
			Description:     "range on plain asset",
			Path:            "/public/data/cities.json",
			Range:           "bytes=1-6",
			WantCode:        http.StatusPartialContent,
			WantContentType: "application/json",
			WantBody:        `"type"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			method := tc.Method
			if method == "" {
				method = http.MethodGet
			}

			req := httptest.NewRequest(method, tc.Path, nil)
			if tc.Range != "" {
				req.Header.Set("Range", tc.Range)
			}
			resp := httptest.NewRecorder()
			h.ServeHTTP(resp, req)

			if resp.Code != tc.WantCode {
				t.Fatalf("wrong status: got %d, want %d", resp.Code, tc.WantCode)
			}
			if got := resp.Header().Get("Location"); got != tc.WantLocation {
				t.Errorf("wrong Location: got %q, want %q", got, tc.WantLocation)
			}
			if tc.WantCode >= 300 {
				return
			}
			if got := resp.Header().Get("Content-Type"); tc.WantContentType != "" && got != tc.WantContentType {
				t.Errorf("wrong Content-Type: got %q, want %q", got, tc.WantContentType)
			}
			if got := resp.Body.String(); got != tc.WantBody {
				t.Errorf("wrong body: got %q, want %q", got, tc.WantBody)
			}
		})
	}
}
