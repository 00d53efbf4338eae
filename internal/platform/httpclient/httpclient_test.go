package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDoJSON_DecodesAndExtractsCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"name":"luna"}`))
		case "/flat":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"code":"email-already-in-use"}`))
		case "/nested":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"auth/wrong-password","message":"x"}}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	var out struct{ Name string }
	if err := c.DoJSON(ctx, http.MethodGet, "ok", nil, nil, &out); err != nil || out.Name != "luna" {
		t.Fatalf("ok: %+v %v", out, err)
	}

	cases := map[string]string{
		"/flat":   "email-already-in-use",
		"/nested": "auth/wrong-password",
		"/plain":  "",
	}
	for path, want := range cases {
		err := c.DoJSON(ctx, http.MethodPost, path, nil, map[string]string{"a": "b"}, nil)
		var he *HTTPError
		if !errors.As(err, &he) {
			t.Fatalf("%s: expected HTTPError, got %v", path, err)
		}
		if he.Code != want {
			t.Fatalf("%s: code=%q want %q", path, he.Code, want)
		}
	}
}

func TestResolveURL_RequiresBase(t *testing.T) {
	c := New(0)
	if _, err := c.resolveURL("/x"); err == nil {
		t.Fatalf("expected error without base url")
	}
	if got, _ := c.resolveURL("https://idp.test/v1"); got != "https://idp.test/v1" {
		t.Fatalf("absolute url changed: %s", got)
	}
}
