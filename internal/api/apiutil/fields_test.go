package apiutil

import (
	"net/http/httptest"
	"testing"
)

func TestPage(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int64
		wantOffset int64
	}{
		{"defaults", "", 20, 0},
		{"explicit values", "?limit=50&offset=10", 50, 10},
		{"zero limit falls back to default", "?limit=0", 20, 0},
		{"limit capped", "?limit=500", 100, 0},
		{"garbage falls back", "?limit=abc&offset=-3", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/"+tt.query, nil)
			limit, offset := Page(req)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Fatalf("Page() = (%d, %d), want (%d, %d)", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest("GET", "/venues/7", nil)
	req.SetPathValue("id", "7")
	id, err := PathID(req, "id")
	if err != nil || id != 7 {
		t.Fatalf("PathID() = (%d, %v)", id, err)
	}

	for _, raw := range []string{"", "0", "-4", "abc"} {
		req := httptest.NewRequest("GET", "/venues/x", nil)
		req.SetPathValue("id", raw)
		if _, err := PathID(req, "id"); err == nil {
			t.Errorf("PathID(%q) accepted", raw)
		}
	}
}
