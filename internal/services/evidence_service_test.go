package services

import (
	"context"
	"strings"
	"testing"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/storage"
	"malkhana-backend/internal/tracking"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func TestRegisterEvidenceWithPhoto(t *testing.T) {
	f := newFixture(t, models.StrictPolicy())
	ctx := context.Background()
	inc := f.createIncident(t, "12/2025")

	qty := 2
	item, err := f.evidence.Register(ctx, &models.RegisterEvidenceRequest{
		IncidentRef:     inc.ID.String(),
		ItemCategory:    "ELECTRONICS",
		AssociatedParty: "suspect",
		ItemDescription: "Black smartphone",
		Quantity:        &qty,
		RoomNumber:      "R2",
	}, &models.Photo{Data: jpegHeader, ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if item.AssociatedParty != models.PartySuspect {
		t.Fatalf("party not normalized: %s", item.AssociatedParty)
	}
	if item.ItemQuantity.MeasurementUnit != models.DefaultMeasurementUnit {
		t.Fatalf("expected default unit, got %q", item.ItemQuantity.MeasurementUnit)
	}
	wantPhoto := "https://blobs.test/" + storage.PhotoKey(item.ID.String(), ".jpg")
	if item.PhotographURL == nil || *item.PhotographURL != wantPhoto {
		t.Fatalf("unexpected photo url %v", item.PhotographURL)
	}
	wantQR := "https://blobs.test/" + storage.QRKey(item.ID.String())
	if item.TrackingQRCode == nil || *item.TrackingQRCode != wantQR {
		t.Fatalf("unexpected tracking code %v", item.TrackingQRCode)
	}
	if _, ct, ok := f.blobs.Get(storage.QRKey(item.ID.String())); !ok || ct != "image/png" {
		t.Fatalf("qr image not stored (ok=%v, type=%q)", ok, ct)
	}

	stored, err := f.evidence.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.TrackingQRCode == nil {
		t.Fatalf("stored item has no tracking code")
	}
}

func TestTrackingCodeRoundTrip(t *testing.T) {
	f := newFixture(t, models.StrictPolicy())
	inc := f.createIncident(t, "1")
	item := f.registerEvidence(t, inc.ID.String(), "DOCUMENT", "Ledger book")

	got, err := f.evidence.ResolveTrackingCode(context.Background(), tracking.Payload(item.ID))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != item.ID {
		t.Fatalf("resolved %s, want %s", got.ID, item.ID)
	}

	_, err = f.evidence.ResolveTrackingCode(context.Background(), "ITEM:"+item.ID.String())
	wantKind(t, err, apperr.KindBadRequest)
	_, err = f.evidence.ResolveTrackingCode(context.Background(), "")
	wantKind(t, err, apperr.KindBadRequest)
}

func TestRegisterEvidenceUnknownIncident(t *testing.T) {
	f := newFixture(t, models.LegacyPolicy())
	qty := 1
	_, err := f.evidence.Register(context.Background(), &models.RegisterEvidenceRequest{
		IncidentRef:     "5f1d7a52-3b1e-4c47-9f61-0d3f4b1c2a10",
		ItemCategory:    "WEAPON",
		AssociatedParty: "UNIDENTIFIED",
		ItemDescription: "Knife",
		Quantity:        &qty,
	}, &models.Photo{Data: jpegHeader, ContentType: "image/jpeg"})
	wantKind(t, err, apperr.KindNotFound)

	if keys := f.blobs.Keys(storage.PhotoFolder); len(keys) != 0 {
		t.Fatalf("photo left behind after failed registration: %v", keys)
	}
}

func TestRegisterEvidenceRollsBackWhenQRUploadFails(t *testing.T) {
	f := newFixture(t, models.StrictPolicy())
	ctx := context.Background()
	inc := f.createIncident(t, "1")
	f.blobs.FailOn = storage.QRFolder

	qty := 1
	_, err := f.evidence.Register(ctx, &models.RegisterEvidenceRequest{
		IncidentRef:     inc.ID.String(),
		ItemCategory:    "JEWELLERY",
		AssociatedParty: "VICTIM",
		ItemDescription: "Gold chain",
		Quantity:        &qty,
	}, &models.Photo{Data: jpegHeader, ContentType: "image/jpeg"})
	wantKind(t, err, apperr.KindInternal)

	items, err := f.evidence.ListByIncident(ctx, inc.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("item persisted without tracking code")
	}
	if keys := f.blobs.Keys(storage.PhotoFolder); len(keys) != 0 {
		t.Fatalf("photo not compensated: %v", keys)
	}
}

func TestRegisterEvidenceOnClosedIncident(t *testing.T) {
	t.Run("legacy allows", func(t *testing.T) {
		f := newFixture(t, models.LegacyPolicy())
		inc := f.createIncident(t, "1")
		f.close(t, inc.ID.String())
		f.registerEvidence(t, inc.ID.String(), "CASH", "Bundle of notes")
	})
	t.Run("strict rejects", func(t *testing.T) {
		f := newFixture(t, models.StrictPolicy())
		inc := f.createIncident(t, "1")
		f.close(t, inc.ID.String())
		qty := 1
		_, err := f.evidence.Register(context.Background(), &models.RegisterEvidenceRequest{
			IncidentRef:     inc.ID.String(),
			ItemCategory:    "CASH",
			AssociatedParty: "SUSPECT",
			ItemDescription: "Bundle of notes",
			Quantity:        &qty,
		}, nil)
		wantKind(t, err, apperr.KindConflict)
	})
}

func TestRegisterEvidenceValidation(t *testing.T) {
	f := newFixture(t, models.StrictPolicy())
	inc := f.createIncident(t, "1")
	one, minus := 1, -1

	tests := []struct {
		name  string
		req   models.RegisterEvidenceRequest
		photo *models.Photo
	}{
		{"bad incident id", models.RegisterEvidenceRequest{IncidentRef: "abc", ItemCategory: "X", AssociatedParty: "VICTIM", ItemDescription: "d", Quantity: &one}, nil},
		{"missing category", models.RegisterEvidenceRequest{IncidentRef: inc.ID.String(), AssociatedParty: "VICTIM", ItemDescription: "d", Quantity: &one}, nil},
		{"bad party", models.RegisterEvidenceRequest{IncidentRef: inc.ID.String(), ItemCategory: "X", AssociatedParty: "WITNESS", ItemDescription: "d", Quantity: &one}, nil},
		{"missing quantity", models.RegisterEvidenceRequest{IncidentRef: inc.ID.String(), ItemCategory: "X", AssociatedParty: "VICTIM", ItemDescription: "d"}, nil},
		{"negative quantity", models.RegisterEvidenceRequest{IncidentRef: inc.ID.String(), ItemCategory: "X", AssociatedParty: "VICTIM", ItemDescription: "d", Quantity: &minus}, nil},
		{"category too long", models.RegisterEvidenceRequest{IncidentRef: inc.ID.String(), ItemCategory: strings.Repeat("x", 101), AssociatedParty: "VICTIM", ItemDescription: "d", Quantity: &one}, nil},
		{"rack too long", models.RegisterEvidenceRequest{IncidentRef: inc.ID.String(), ItemCategory: "X", AssociatedParty: "VICTIM", ItemDescription: "d", Quantity: &one, RackNumber: strings.Repeat("r", 51)}, nil},
		{"pdf photo", models.RegisterEvidenceRequest{IncidentRef: inc.ID.String(), ItemCategory: "X", AssociatedParty: "VICTIM", ItemDescription: "d", Quantity: &one}, &models.Photo{Data: []byte("%PDF-1.4"), ContentType: "application/pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.evidence.Register(context.Background(), &req, tt.photo)
			wantKind(t, err, apperr.KindBadRequest)
		})
	}
}

func TestEvidenceSearch(t *testing.T) {
	f := newFixture(t, models.StrictPolicy())
	ctx := context.Background()
	a := f.createIncident(t, "1")
	b := f.createIncident(t, "2")
	f.registerEvidence(t, a.ID.String(), "ELECTRONICS", "Laptop with charger")
	f.registerEvidence(t, a.ID.String(), "DOCUMENT", "Forged passport")
	f.registerEvidence(t, b.ID.String(), "ELECTRONICS", "Phone")

	tests := []struct {
		name  string
		query models.EvidenceQuery
		want  int
	}{
		{"by incident", models.EvidenceQuery{IncidentID: a.ID.String()}, 2},
		{"category substring", models.EvidenceQuery{Category: "electro"}, 2},
		{"party", models.EvidenceQuery{Party: "suspect"}, 3},
		{"keyword over description", models.EvidenceQuery{Keyword: "LAPTOP"}, 1},
		{"keyword over category", models.EvidenceQuery{Keyword: "document"}, 1},
		{"incident and category", models.EvidenceQuery{IncidentID: b.ID.String(), Category: "DOCUMENT"}, 0},
		{"no match", models.EvidenceQuery{Keyword: "narcotics"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.evidence.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if got == nil || len(got) != tt.want {
				t.Fatalf("expected %d results, got %v", tt.want, got)
			}
		})
	}

	_, err := f.evidence.Search(ctx, models.EvidenceQuery{Party: "WITNESS"})
	wantKind(t, err, apperr.KindBadRequest)
	_, err = f.evidence.Search(ctx, models.EvidenceQuery{IncidentID: "nope"})
	wantKind(t, err, apperr.KindBadRequest)
}

func TestPhotoExtension(t *testing.T) {
	for ct, want := range map[string]string{"image/jpeg": ".jpg", "IMAGE/PNG": ".png", "image/webp": ".webp"} {
		if got, ok := PhotoExtension(ct); !ok || got != want {
			t.Fatalf("PhotoExtension(%q) = %q, %v", ct, got, ok)
		}
	}
	if _, ok := PhotoExtension("text/plain"); ok {
		t.Fatalf("text/plain accepted")
	}
}
