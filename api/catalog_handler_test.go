package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/rpupo63/foodgram-backend/models"
)

func TestIngredientSearch(t *testing.T) {
	a := newTestAPI(t)
	for _, name := range []string{"Sugar", "salt", "sea salt", "100% juice", "soy sauce", "Яйцо куриное", "яблоко"} {
		a.seedIngredient(name, "г")
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "no filter lists everything by name", query: "", want: []string{"100% juice", "Sugar", "salt", "sea salt", "soy sauce", "Яйцо куриное", "яблоко"}},
		{name: "prefix match ignores case", query: "S", want: []string{"Sugar", "salt", "sea salt", "soy sauce"}},
		{name: "prefix is not a substring match", query: "salt", want: []string{"salt"}},
		{name: "wildcards are literal", query: "%", want: []string{}},
		{name: "percent inside a name", query: "100%", want: []string{"100% juice"}},
		{name: "underscore is literal", query: "s_a", want: []string{}},
		{name: "no match", query: "zzz", want: []string{}},
		{name: "cyrillic prefix in stored case", query: "Яй", want: []string{"Яйцо куриное"}},
		{name: "cyrillic prefix in lower case", query: "яй", want: []string{"Яйцо куриное"}},
		{name: "cyrillic prefix in upper case", query: "Я", want: []string{"Яйцо куриное", "яблоко"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodGet, "/api/ingredients/?name="+url.QueryEscape(tt.query), "", nil)
			a.expectStatus(rec, http.StatusOK)

			got := decodeBody[[]models.Ingredient](t, rec)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d ingredients %+v, want %v", len(got), got, tt.want)
			}
			for i := range got {
				if got[i].Name != tt.want[i] {
					t.Fatalf("result %d: got %q, want %q", i, got[i].Name, tt.want[i])
				}
			}
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	a := newTestAPI(t)
	butter := a.seedIngredient("butter", "г")
	a.seedTag("Breakfast")
	lunch := a.seedTag("Lunch")

	rec := a.do(http.MethodGet, "/api/ingredients/"+itoa(butter.ID)+"/", "", nil)
	a.expectStatus(rec, http.StatusOK)
	if got := decodeBody[models.Ingredient](t, rec); got.Name != "butter" || got.MeasurementUnit != "г" {
		t.Errorf("unexpected ingredient %+v", got)
	}
	a.expectStatus(a.do(http.MethodGet, "/api/ingredients/9999/", "", nil), http.StatusNotFound)

	rec = a.do(http.MethodGet, "/api/tags/", "", nil)
	a.expectStatus(rec, http.StatusOK)
	tags := decodeBody[[]models.Tag](t, rec)
	if len(tags) != 2 || tags[0].Slug != "breakfast" || tags[1].Slug != "lunch" {
		t.Errorf("unexpected tags %+v", tags)
	}

	rec = a.do(http.MethodGet, "/api/tags/"+itoa(lunch.ID)+"/", "", nil)
	a.expectStatus(rec, http.StatusOK)
	if got := decodeBody[models.Tag](t, rec); got.Name != "Lunch" || got.Color != models.DefaultTagColor {
		t.Errorf("unexpected tag %+v", got)
	}
	a.expectStatus(a.do(http.MethodGet, "/api/tags/0/", "", nil), http.StatusNotFound)
}
