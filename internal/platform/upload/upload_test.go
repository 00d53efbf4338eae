package upload

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func multipartRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if file != nil {
		fw, err := mw.CreateFormFile("photo", "luna.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(file)
	}
	_ = mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/pets", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestIsMultipart(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	if !IsMultipart(r) {
		t.Fatalf("expected multipart")
	}
	r.Header.Set("Content-Type", "application/json")
	if IsMultipart(r) {
		t.Fatalf("json is not multipart")
	}
}

func TestParseForm_FileAndValues(t *testing.T) {
	r := multipartRequest(t, map[string]string{"name": "  Luna  "}, []byte("png-bytes"))
	if err := ParseForm(httptest.NewRecorder(), r, 1<<20); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := Value(r, "name"); got != "Luna" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if OptionalValue(r, "breed") != nil {
		t.Fatalf("missing field must be nil")
	}
	if v := OptionalValue(r, "name"); v == nil || *v != "  Luna  " {
		t.Fatalf("optional value should keep raw text, got %v", v)
	}

	obj, err := File(r, "photo")
	if err != nil || obj == nil {
		t.Fatalf("expected file, got %v %v", obj, err)
	}
	if obj.Filename != "luna.png" || obj.Size != int64(len("png-bytes")) {
		t.Fatalf("unexpected object: %+v", obj)
	}
	b, _ := io.ReadAll(obj.Body)
	if string(b) != "png-bytes" {
		t.Fatalf("unexpected body %q", string(b))
	}
}

func TestFile_MissingOrEmptyIsNil(t *testing.T) {
	r := multipartRequest(t, map[string]string{"name": "x"}, nil)
	if err := ParseForm(httptest.NewRecorder(), r, 1<<20); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if obj, err := File(r, "photo"); obj != nil || err != nil {
		t.Fatalf("expected nil, nil; got %v %v", obj, err)
	}

	r = multipartRequest(t, nil, []byte{})
	if err := ParseForm(httptest.NewRecorder(), r, 1<<20); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if obj, err := File(r, "photo"); obj != nil || err != nil {
		t.Fatalf("empty file should be nil, got %v %v", obj, err)
	}
}

func TestParseForm_TooLarge(t *testing.T) {
	big := bytes.Repeat([]byte("a"), 3<<20)
	r := multipartRequest(t, nil, big)

	err := ParseForm(httptest.NewRecorder(), r, 1<<20)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}
