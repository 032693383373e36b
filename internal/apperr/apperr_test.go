package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestStatus(t *testing.T) {
	cases := map[Kind]int{
		KindBadRequest:   http.StatusBadRequest,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := (&Error{Kind: kind}).Status(); got != want {
			t.Fatalf("%s: status %d, want %d", kind, got, want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("load incident: %w", NotFound("Incident not found"))
	if !Is(err, KindNotFound) {
		t.Fatalf("kind lost through wrapping: %v", KindOf(err))
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("plain error should be internal")
	}
	if As(errors.New("boom")).Message != "Internal server error" {
		t.Fatalf("internal message leaks cause")
	}
}

func TestFromDB(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"no rows", pgx.ErrNoRows, KindNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, KindConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, KindNotFound},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, KindBadRequest},
		{"check", &pgconn.PgError{Code: "23514"}, KindBadRequest},
		{"too long", &pgconn.PgError{Code: "22001"}, KindBadRequest},
		{"other pg", &pgconn.PgError{Code: "40001"}, KindInternal},
		{"plain", errors.New("conn reset"), KindInternal},
		{"already typed", Conflict("Incident is already closed"), KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(FromDB(tt.err, "Incident")); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
	if FromDB(nil, "Incident") != nil {
		t.Fatalf("nil error should stay nil")
	}
	if msg := As(FromDB(pgx.ErrNoRows, "Incident")).Message; msg != "Incident not found" {
		t.Fatalf("message = %q", msg)
	}
}
