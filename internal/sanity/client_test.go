package sanity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func testClient(fn roundTripFunc) *Client {
	c := New("proj", "production", "token", WithDelay(0))
	c.http = &http.Client{Transport: fn}
	return c
}

func TestCreateOrReplace(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("unexpected auth header: %s", req.Header.Get("Authorization"))
		}
		if !strings.HasSuffix(req.URL.Path, "/data/mutate/production") {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		var body struct {
			Mutations []map[string]map[string]any `json:"mutations"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		doc := body.Mutations[0]["createOrReplace"]
		if doc["_id"] != "abc" {
			t.Fatalf("unexpected doc: %+v", doc)
		}
		return jsonResponse(200, `{}`), nil
	})
	err := c.CreateOrReplace(context.Background(), map[string]any{"_id": "abc", "_type": "article"})
	if err != nil {
		t.Fatalf("CreateOrReplace returned error: %v", err)
	}
}

func TestCreateOrReplaceRequiresID(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if err := c.CreateOrReplace(context.Background(), map[string]any{"_type": "article"}); err == nil {
		t.Fatal("expected error for missing _id")
	}
}

func TestDelete(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		var body struct {
			Mutations []map[string]map[string]any `json:"mutations"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Mutations[0]["delete"]["id"] != "abc" {
			t.Fatalf("unexpected delete: %+v", body.Mutations)
		}
		return jsonResponse(200, `{}`), nil
	})
	if err := c.Delete(context.Background(), "abc"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
}

func TestExistingIDsBatched(t *testing.T) {
	calls := 0
	c := testClient(func(req *http.Request) (*http.Response, error) {
		calls++
		if !strings.HasSuffix(req.URL.Path, "/data/query/production") {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		q := req.URL.Query().Get("query")
		if !strings.Contains(q, `"id1"`) || !strings.Contains(q, `"id2"`) {
			t.Fatalf("ids missing from query: %s", q)
		}
		return jsonResponse(200, `{"result":["id1"]}`), nil
	})
	got, err := c.ExistingIDs(context.Background(), []string{"id1", "id2"})
	if err != nil {
		t.Fatalf("ExistingIDs returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("want one batched call, got %d", calls)
	}
	if !got["id1"] || got["id2"] {
		t.Fatalf("unexpected existence map: %v", got)
	}
}

func TestExistingIDsEmpty(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected for empty id list")
		return nil, nil
	})
	got, err := c.ExistingIDs(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("unexpected result: %v, %v", got, err)
	}
}

func TestUploadImage(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(req.URL.Path, "/assets/images/production") {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if req.URL.Query().Get("filename") != "photo.jpg" {
			t.Fatalf("filename missing: %s", req.URL.RawQuery)
		}
		data, _ := io.ReadAll(req.Body)
		if string(data) != "img-bytes" {
			t.Fatalf("unexpected payload: %q", data)
		}
		return jsonResponse(200, `{"document":{"_id":"image-xyz"}}`), nil
	})
	ref, err := c.UploadImage(context.Background(), []byte("img-bytes"), "photo.jpg")
	if err != nil {
		t.Fatalf("UploadImage returned error: %v", err)
	}
	if ref.Type != "image" || ref.Asset.Ref != "image-xyz" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestAPIErrorOnFailure(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(500, `{}`), nil
	})
	err := c.Delete(context.Background(), "abc")
	if err == nil {
		t.Fatal("expected error for 500")
	}
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Status != 500 || apiErr.Op != "document.delete" {
		t.Fatalf("unexpected error: %v", err)
	}
}
