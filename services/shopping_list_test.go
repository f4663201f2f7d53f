package services

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rpupo63/foodgram-backend/database"
)

func TestAggregateShoppingList(t *testing.T) {
	tests := []struct {
		name  string
		lines []database.ShoppingCartLine
		want  []ShoppingListItem
	}{
		{
			name: "same ingredient across recipes is summed",
			lines: []database.ShoppingCartLine{
				{RecipeID: 1, Name: "eggs", MeasurementUnit: "шт.", Amount: 2},
				{RecipeID: 2, Name: "eggs", MeasurementUnit: "шт.", Amount: 3},
			},
			want: []ShoppingListItem{{Name: "eggs", MeasurementUnit: "шт.", Amount: 5}},
		},
		{
			name: "first encounter order is kept",
			lines: []database.ShoppingCartLine{
				{RecipeID: 1, Name: "milk", MeasurementUnit: "мл", Amount: 200},
				{RecipeID: 1, Name: "flour", MeasurementUnit: "г", Amount: 100},
				{RecipeID: 2, Name: "milk", MeasurementUnit: "мл", Amount: 50},
			},
			want: []ShoppingListItem{
				{Name: "milk", MeasurementUnit: "мл", Amount: 250},
				{Name: "flour", MeasurementUnit: "г", Amount: 100},
			},
		},
		{
			name: "different units stay separate",
			lines: []database.ShoppingCartLine{
				{RecipeID: 1, Name: "sugar", MeasurementUnit: "г", Amount: 10},
				{RecipeID: 2, Name: "sugar", MeasurementUnit: "ч. л.", Amount: 2},
				{RecipeID: 3, Name: "sugar", MeasurementUnit: "г", Amount: 5},
			},
			want: []ShoppingListItem{
				{Name: "sugar", MeasurementUnit: "г", Amount: 15},
				{Name: "sugar", MeasurementUnit: "ч. л.", Amount: 2},
			},
		},
		{
			name:  "empty cart",
			lines: nil,
			want:  []ShoppingListItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateShoppingList(tt.lines)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d items, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormatShoppingListLine(t *testing.T) {
	got := FormatShoppingListLine(ShoppingListItem{Name: "eggs", MeasurementUnit: "шт.", Amount: 5})
	if want := "eggs (шт.) — 5"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func renderedText(t *testing.T, items []ShoppingListItem) string {
	t.Helper()

	renderer := NewShoppingListRenderer("")
	renderer.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	var buf bytes.Buffer
	if err := renderer.Render(&buf, items); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output does not look like a PDF: %q", buf.Bytes()[:16])
	}

	reader, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("failed to parse rendered PDF: %v", err)
	}
	if reader.NumPage() != 1 {
		t.Fatalf("got %d pages, want 1", reader.NumPage())
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		t.Fatalf("failed to extract text: %v", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		t.Fatalf("failed to read text: %v", err)
	}
	return string(text)
}

func TestShoppingListRendererListsItems(t *testing.T) {
	text := renderedText(t, []ShoppingListItem{
		{Name: "eggs", MeasurementUnit: "шт.", Amount: 5},
		{Name: "butter", MeasurementUnit: "г", Amount: 120},
	})

	for _, want := range []string{ShoppingListTitle, "1. eggs", "2. butter", "120"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered text %q does not contain %q", text, want)
		}
	}
}

func TestShoppingListRendererKeepsCyrillic(t *testing.T) {
	text := renderedText(t, []ShoppingListItem{
		{Name: "Яйцо куриное", MeasurementUnit: "шт.", Amount: 5},
		{Name: "Мука", MeasurementUnit: "г", Amount: 300},
	})

	for _, want := range []string{"1. Яйцо куриное (шт.) — 5", "2. Мука (г) — 300"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered text %q does not contain %q", text, want)
		}
	}
}

func TestShoppingListRendererFontOverride(t *testing.T) {
	renderer := NewShoppingListRenderer(filepath.Join("fonts", "DejaVuSansCondensed.ttf"))

	var buf bytes.Buffer
	if err := renderer.Render(&buf, []ShoppingListItem{{Name: "Соль", MeasurementUnit: "г", Amount: 1}}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	renderer.FontPath = filepath.Join("fonts", "missing.ttf")
	if err := renderer.Render(&buf, nil); err == nil {
		t.Fatal("expected an error for a missing font file")
	}
}

func TestShoppingListRendererEmptyCart(t *testing.T) {
	text := renderedText(t, nil)

	if !strings.Contains(text, EmptyShoppingList) {
		t.Fatalf("rendered text %q does not mention the empty list", text)
	}
}
