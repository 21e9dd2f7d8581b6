package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"sui-launchpad/internal/kv"
)

type stubSource struct {
	price float64
	err   error
}

func (s *stubSource) CurrentPrice(context.Context) (float64, error) {
	return s.price, s.err
}

func TestSuiUSD_LiveSource(t *testing.T) {
	source := &stubSource{price: 2.34}
	cache := kv.NewMemoryStore()
	o := New(source, cache, zerolog.Nop())

	price, live := o.SuiUSD(context.Background())
	if !live {
		t.Error("expected live rate")
	}
	if price != 2.34 {
		t.Errorf("price = %v, want 2.34", price)
	}

	// Live fetch must populate the cache for later degradation.
	if _, err := cache.Get(context.Background(), cacheKey); err != nil {
		t.Errorf("cache not populated after live fetch: %v", err)
	}
}

func TestSuiUSD_FallsBackToCache(t *testing.T) {
	source := &stubSource{price: 2.34}
	cache := kv.NewMemoryStore()
	o := New(source, cache, zerolog.Nop())
	ctx := context.Background()

	o.SuiUSD(ctx)

	source.err = errors.New("oracle unreachable")
	price, live := o.SuiUSD(ctx)
	if live {
		t.Error("expected degraded rate")
	}
	if price != 2.34 {
		t.Errorf("price = %v, want cached 2.34", price)
	}
}

func TestSuiUSD_FallsBackToConstant(t *testing.T) {
	source := &stubSource{err: errors.New("oracle unreachable")}
	o := New(source, kv.NewMemoryStore(), zerolog.Nop())

	price, live := o.SuiUSD(context.Background())
	if live {
		t.Error("expected degraded rate")
	}
	if price != FallbackUSD {
		t.Errorf("price = %v, want fallback %v", price, FallbackUSD)
	}
}

func TestHTTPSource_CurrentPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price": "1.87"}`))
	}))
	defer server.Close()

	price, err := NewHTTPSource(server.URL).CurrentPrice(context.Background())
	if err != nil {
		t.Fatalf("CurrentPrice: %v", err)
	}
	if price != 1.87 {
		t.Errorf("price = %v, want 1.87", price)
	}
}

func TestHTTPSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "empty price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
		},
		{
			name: "non-numeric price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"price": "n/a"}`))
			},
		},
		{
			name: "non-positive price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"price": "0"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			if _, err := NewHTTPSource(server.URL).CurrentPrice(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
