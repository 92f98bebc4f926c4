package sb

import (
	"context"
	"errors"
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
	c := New("token", 42, WithDelay(0))
	c.http = &http.Client{Transport: fn}
	return c
}

func TestListStoriesPage(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "token" {
			t.Fatalf("unexpected token header: %s", req.Header.Get("Authorization"))
		}
		q := req.URL.Query()
		if q.Get("page") != "2" || q.Get("per_page") != "10" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		if q.Get("content_type") != "article" {
			t.Fatalf("content_type filter missing: %s", req.URL.RawQuery)
		}
		body := `{"stories":[{"id":1,"slug":"a","full_slug":"blog/a"}],"total":11,"page":2,"per_page":10}`
		return jsonResponse(200, body), nil
	})
	page, err := c.ListStoriesPage(context.Background(), StoryListOpts{Page: 2, PerPage: 10, ContentType: "article"})
	if err != nil {
		t.Fatalf("ListStoriesPage returned error: %v", err)
	}
	if page.Total != 11 || len(page.Stories) != 1 || page.Stories[0].Slug != "a" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestListStoriesPageError(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(500, "{}"), nil
	})
	_, err := c.ListStoriesPage(context.Background(), StoryListOpts{Page: 3})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	var pe *PageError
	if !errors.As(err, &pe) {
		t.Fatalf("want PageError, got %T", err)
	}
	if pe.Endpoint != "stories.list" || pe.Page != 3 || pe.Status != 500 {
		t.Fatalf("unexpected page error: %+v", pe)
	}
}

func TestNoToken(t *testing.T) {
	c := New("", 1, WithDelay(0))
	if _, err := c.ListComponents(context.Background()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestGetStoryWithContent(t *testing.T) {
	c := testClient(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/spaces/42/stories/7") {
			t.Fatalf("unexpected url %s", req.URL.Path)
		}
		body := `{"story":{"id":7,"slug":"s","content":{"component":"article","title":"T"}}}`
		return jsonResponse(200, body), nil
	})
	st, err := c.GetStoryWithContent(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetStoryWithContent returned error: %v", err)
	}
	if st.ContentType() != "article" {
		t.Fatalf("unexpected content type: %q", st.ContentType())
	}
}

func TestContentTypeFallback(t *testing.T) {
	if (Story{}).ContentType() != "" {
		t.Fatal("nil content should yield empty content type")
	}
	s := Story{Content: map[string]interface{}{"component": 5}}
	if s.ContentType() != "" {
		t.Fatal("non-string component should yield empty content type")
	}
}

func TestStoryListOptsFilters(t *testing.T) {
	if f := (StoryListOpts{}).Filters(); f != nil {
		t.Fatalf("empty opts should have nil filters, got %v", f)
	}
	f := StoryListOpts{StartsWith: "blog/", UpdatedAtGTE: "2024-01-01 00:00"}.Filters()
	if f["starts_with"] != "blog/" || f["updated_at_gte"] != "2024-01-01 00:00" {
		t.Fatalf("unexpected filters: %v", f)
	}
}
