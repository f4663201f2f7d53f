package api

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/rpupo63/foodgram-backend/services"
)

func TestFavoriteToggle(t *testing.T) {
	a := newTestAPI(t)
	author := a.login(a.createUser("chef"))
	fan := a.login(a.createUser("fan"))
	tag := a.seedTag("Dessert")
	sugar := a.seedIngredient("sugar", "г")
	cake := a.createRecipe(author, recipePayload("Cake", []uint{tag.ID}, line(sugar.ID, 100)))

	rec := a.do(http.MethodPost, recipePath(cake.ID, "favorite/"), fan, nil)
	a.expectStatus(rec, http.StatusCreated)
	short := decodeBody[RecipeShortResponse](t, rec)
	if short.ID != cake.ID || short.Name != "Cake" || short.CookingTime != 10 || short.Image != cake.Image {
		t.Errorf("unexpected short recipe %+v", short)
	}

	// A second add is rejected and leaves the favorite in place
	a.expectStatus(a.do(http.MethodPost, recipePath(cake.ID, "favorite/"), fan, nil), http.StatusBadRequest)

	rec = a.do(http.MethodGet, recipePath(cake.ID, ""), fan, nil)
	a.expectStatus(rec, http.StatusOK)
	if got := decodeBody[RecipeResponse](t, rec); !got.IsFavorited || got.IsInShoppingCart {
		t.Errorf("fan view: is_favorited=%v is_in_shopping_cart=%v", got.IsFavorited, got.IsInShoppingCart)
	}
	rec = a.do(http.MethodGet, recipePath(cake.ID, ""), author, nil)
	a.expectStatus(rec, http.StatusOK)
	if decodeBody[RecipeResponse](t, rec).IsFavorited {
		t.Error("favorites of one user leaked to another")
	}

	a.expectStatus(a.do(http.MethodDelete, recipePath(cake.ID, "favorite/"), fan, nil), http.StatusNoContent)
	a.expectStatus(a.do(http.MethodDelete, recipePath(cake.ID, "favorite/"), fan, nil), http.StatusBadRequest)

	a.expectStatus(a.do(http.MethodPost, recipePath(cake.ID+100, "favorite/"), fan, nil), http.StatusNotFound)
	a.expectStatus(a.do(http.MethodDelete, recipePath(cake.ID+100, "favorite/"), fan, nil), http.StatusNotFound)
	a.expectStatus(a.do(http.MethodPost, recipePath(cake.ID, "favorite/"), "", nil), http.StatusUnauthorized)
}

func TestShoppingCartToggle(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(a.createUser("cook"))
	tag := a.seedTag("Soup")
	water := a.seedIngredient("water", "мл")
	soup := a.createRecipe(token, recipePayload("Broth", []uint{tag.ID}, line(water.ID, 500)))

	a.expectStatus(a.do(http.MethodPost, recipePath(soup.ID, "shopping_cart/"), token, nil), http.StatusCreated)
	a.expectStatus(a.do(http.MethodPost, recipePath(soup.ID, "shopping_cart/"), token, nil), http.StatusBadRequest)

	rec := a.do(http.MethodGet, recipePath(soup.ID, ""), token, nil)
	a.expectStatus(rec, http.StatusOK)
	if !decodeBody[RecipeResponse](t, rec).IsInShoppingCart {
		t.Error("recipe should be in the cart")
	}

	a.expectStatus(a.do(http.MethodDelete, recipePath(soup.ID, "shopping_cart/"), token, nil), http.StatusNoContent)
	a.expectStatus(a.do(http.MethodDelete, recipePath(soup.ID, "shopping_cart/"), token, nil), http.StatusBadRequest)
}

func TestDeletingRecipeClearsInteractions(t *testing.T) {
	a := newTestAPI(t)
	author := a.login(a.createUser("chef"))
	fan := a.login(a.createUser("fan"))
	tag := a.seedTag("Snack")
	nuts := a.seedIngredient("nuts", "г")
	snack := a.createRecipe(author, recipePayload("Trail mix", []uint{tag.ID}, line(nuts.ID, 50)))

	a.expectStatus(a.do(http.MethodPost, recipePath(snack.ID, "favorite/"), fan, nil), http.StatusCreated)
	a.expectStatus(a.do(http.MethodPost, recipePath(snack.ID, "shopping_cart/"), fan, nil), http.StatusCreated)
	a.expectStatus(a.do(http.MethodDelete, recipePath(snack.ID, ""), author, nil), http.StatusNoContent)

	rec := a.do(http.MethodGet, "/api/recipes/?is_favorited=1", fan, nil)
	a.expectStatus(rec, http.StatusOK)
	if got := decodeBody[PaginatedResponse[RecipeResponse]](t, rec); got.Count != 0 {
		t.Errorf("got %d favorites after deleting the recipe, want 0", got.Count)
	}

	text := a.downloadShoppingList(fan)
	if !strings.Contains(text, services.EmptyShoppingList) {
		t.Errorf("cart should be empty after deleting its only recipe, got %q", text)
	}
}

func TestDownloadShoppingCart(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(a.createUser("shopper"))
	tag := a.seedTag("Breakfast")
	eggs := a.seedIngredient("eggs", "шт.")
	flour := a.seedIngredient("flour", "г")
	flourKg := a.seedIngredient("flour", "кг")

	omelette := a.createRecipe(token, recipePayload("Omelette", []uint{tag.ID}, line(eggs.ID, 2)))
	pancakes := a.createRecipe(token, recipePayload("Pancakes", []uint{tag.ID}, line(eggs.ID, 3), line(flour.ID, 120), line(flourKg.ID, 1)))
	waffles := a.createRecipe(token, recipePayload("Waffles", []uint{tag.ID}, line(flour.ID, 80)))
	// Not in the cart
	a.createRecipe(token, recipePayload("Scrambled eggs", []uint{tag.ID}, line(eggs.ID, 40)))

	for _, id := range []uint{omelette.ID, pancakes.ID, waffles.ID} {
		a.expectStatus(a.do(http.MethodPost, recipePath(id, "shopping_cart/"), token, nil), http.StatusCreated)
	}

	rec := a.do(http.MethodGet, "/api/recipes/download_shopping_cart/", token, nil)
	a.expectStatus(rec, http.StatusOK)
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("got Content-Type %q, want application/pdf", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="shopping_list.pdf"` {
		t.Errorf("unexpected Content-Disposition %q", got)
	}

	text := pdfText(t, rec.Body.Bytes())
	for _, want := range []string{services.ShoppingListTitle, "1. eggs (шт.) — 5", "2. flour (г) — 200", "3. flour (кг) — 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("shopping list %q does not contain %q", text, want)
		}
	}
	for _, unwanted := range []string{"120", "40"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("shopping list %q should not contain %q", text, unwanted)
		}
	}
}

func TestDownloadEmptyShoppingCart(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(a.createUser("shopper"))

	text := a.downloadShoppingList(token)
	if !strings.Contains(text, services.EmptyShoppingList) {
		t.Errorf("got %q, want the empty list message", text)
	}

	a.expectStatus(a.do(http.MethodGet, "/api/recipes/download_shopping_cart/", "", nil), http.StatusUnauthorized)
}

func (a *testAPI) downloadShoppingList(token string) string {
	a.t.Helper()

	rec := a.do(http.MethodGet, "/api/recipes/download_shopping_cart/", token, nil)
	a.expectStatus(rec, http.StatusOK)
	return pdfText(a.t, rec.Body.Bytes())
}

func pdfText(t *testing.T, data []byte) string {
	t.Helper()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to parse PDF: %v", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		t.Fatalf("failed to extract PDF text: %v", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		t.Fatalf("failed to read PDF text: %v", err)
	}
	return string(text)
}
