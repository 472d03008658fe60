package ror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchNormalizesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "Berkeley" {
			t.Fatalf("unexpected query: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"https://ror.org/01an7q238","name":"University of California, Berkeley",
			 "external_ids":{"FundRef":{"preferred":"100006978","all":["100006978"]}}},
			{"id":"https://ror.org/02jbv0t02","name":"Lawrence Berkeley National Laboratory",
			 "external_ids":{"FundRef":{"all":["100006235"]}}},
			{"id":"https://ror.org/0junk0000","name":"   "}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, true, WithHTTPClient(srv.Client()), WithRateLimit(1000))
	got, err := c.Search(context.Background(), "Berkeley")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected blank-name item dropped, got %+v", got)
	}
	if got[0].ROR != "01an7q238" {
		t.Fatalf("ROR URL not normalized: %q", got[0].ROR)
	}
	if got[0].Fundref != "100006978" {
		t.Fatalf("preferred FundRef not picked: %q", got[0].Fundref)
	}
	if got[1].Fundref != "100006235" {
		t.Fatalf("fallback FundRef not picked: %q", got[1].Fundref)
	}
	if got[1].SortName != "lawrence berkeley national laboratory" {
		t.Fatalf("sort name missing: %q", got[1].SortName)
	}
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, true, WithHTTPClient(srv.Client()), WithRateLimit(1000))
	if _, err := c.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestInactiveClient(t *testing.T) {
	c := New("", true)
	if c.Active() {
		t.Fatal("client without base URL must be inactive")
	}
	got, err := c.Search(context.Background(), "term")
	if err != nil || got != nil {
		t.Fatalf("inactive search should be a no-op, got %v, %v", got, err)
	}

	c = New("https://api.ror.org", false)
	if c.Active() {
		t.Fatal("disabled client must be inactive")
	}
}
