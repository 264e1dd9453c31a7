package pricingclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
)

func TestPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pricePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("sku") {
		case "SKU-001":
			_, _ = w.Write([]byte(`{"ok":true,"sku":"SKU-001","price":100}`))
		case "SKU-BAD":
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "SKU-GARBAGE":
			_, _ = w.Write([]byte(`<html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"ok":false,"reason":"no_price"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)

	price, err := c.Price(context.Background(), "SKU-001")
	if err != nil || price != 100 {
		t.Fatalf("got %v, %v", price, err)
	}

	for _, sku := range []string{"SKU-404", "SKU-BAD", "SKU-GARBAGE"} {
		_, err := c.Price(context.Background(), sku)
		if !errors.Is(err, ErrUnavailable) || !errors.Is(err, apperr.ErrUpstreamUnavailable) {
			t.Fatalf("%s: expected ErrUnavailable, got %v", sku, err)
		}
	}
}

func TestPriceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := New(url, 200*time.Millisecond, nil).Price(context.Background(), "SKU-001"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestValidateCoupon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in validateRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch in.Code {
		case "SAVE10":
			_ = json.NewEncoder(w).Encode(map[string]any{"valid": true, "discount": in.ItemsTotal / 10, "final": in.ItemsTotal * 0.9})
		case "BROKEN":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`{"valid":false,"reason":"invalid"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)

	q, valid, err := c.ValidateCoupon(context.Background(), "SAVE10", 100)
	if err != nil || !valid || q.Discount != 10 || q.Final != 90 {
		t.Fatalf("got %+v valid=%v err=%v", q, valid, err)
	}

	_, valid, err = c.ValidateCoupon(context.Background(), "NOPE", 100)
	if err != nil || valid {
		t.Fatalf("expected invalid without error, got valid=%v err=%v", valid, err)
	}

	if _, _, err := c.ValidateCoupon(context.Background(), "BROKEN", 100); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
