package api

import (
	"net/http"
	"strings"
	"testing"
)

func registration(username, email string) map[string]string {
	return map[string]string{
		"email":      email,
		"username":   username,
		"first_name": "Ivan",
		"last_name":  "Ivanov",
		"password":   "correct-horse",
	}
}

func TestCreateUser(t *testing.T) {
	a := newTestAPI(t)
	a.createUser("taken")

	tests := []struct {
		name      string
		body      map[string]string
		wantCode  int
		wantField string
	}{
		{
			name:     "valid registration",
			body:     registration("john_doe-1", "john@example.com"),
			wantCode: http.StatusCreated,
		},
		{
			name:     "username with allowed punctuation",
			body:     registration("a.b+c@d", "abcd@example.com"),
			wantCode: http.StatusCreated,
		},
		{
			name:      "reserved username",
			body:      registration("me", "me@example.com"),
			wantCode:  http.StatusBadRequest,
			wantField: "username",
		},
		{
			name:      "reserved username in another case",
			body:      registration("ME", "me2@example.com"),
			wantCode:  http.StatusBadRequest,
			wantField: "username",
		},
		{
			name:      "username with spaces",
			body:      registration("john doe!", "jd@example.com"),
			wantCode:  http.StatusBadRequest,
			wantField: "username",
		},
		{
			name:      "malformed email",
			body:      registration("mailless", "not-an-email"),
			wantCode:  http.StatusBadRequest,
			wantField: "email",
		},
		{
			name:      "duplicate email",
			body:      registration("fresh", "taken@example.com"),
			wantCode:  http.StatusBadRequest,
			wantField: "email",
		},
		{
			name:      "duplicate username",
			body:      registration("taken", "other@example.com"),
			wantCode:  http.StatusBadRequest,
			wantField: "username",
		},
		{
			name: "missing last name",
			body: func() map[string]string {
				body := registration("nolast", "nolast@example.com")
				delete(body, "last_name")
				return body
			}(),
			wantCode:  http.StatusBadRequest,
			wantField: "last_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodPost, "/api/users/", "", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusCreated {
				got := decodeBody[UserCreatedResponse](t, rec)
				if got.ID == 0 || got.Username != tt.body["username"] || got.Email != tt.body["email"] {
					t.Errorf("unexpected created user %+v", got)
				}
				if strings.Contains(rec.Body.String(), `"password"`) {
					t.Errorf("response leaks the password: %s", rec.Body.String())
				}
				return
			}
			body := decodeBody[ErrorResponse](t, rec)
			if _, ok := body.Fields[tt.wantField]; !ok && body.Field != tt.wantField {
				t.Fatalf("error %+v does not mention field %q", body, tt.wantField)
			}
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	a := newTestAPI(t)
	user := a.createUser("alice")

	a.expectStatus(a.do(http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    user.Email,
		"password": "wrong",
	}), http.StatusBadRequest)
	a.expectStatus(a.do(http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "s3cret-pass",
	}), http.StatusBadRequest)

	token := a.login(user)

	rec := a.do(http.MethodGet, "/api/users/me/", token, nil)
	a.expectStatus(rec, http.StatusOK)
	if got := decodeBody[UserResponse](t, rec); got.ID != user.ID || got.Username != "alice" || got.IsSubscribed {
		t.Errorf("unexpected current user %+v", got)
	}

	a.expectStatus(a.do(http.MethodGet, "/api/users/me/", "", nil), http.StatusUnauthorized)
	a.expectStatus(a.do(http.MethodGet, "/api/users/me/", "garbage", nil), http.StatusUnauthorized)
	// A bad token is rejected even where anonymous access is allowed
	a.expectStatus(a.do(http.MethodGet, "/api/recipes/", "garbage", nil), http.StatusUnauthorized)

	a.expectStatus(a.do(http.MethodPost, "/api/auth/token/logout/", token, nil), http.StatusNoContent)
	a.expectStatus(a.do(http.MethodGet, "/api/users/me/", token, nil), http.StatusUnauthorized)

	// Other sessions survive the logout
	other := a.login(user)
	a.expectStatus(a.do(http.MethodGet, "/api/users/me/", other, nil), http.StatusOK)
}

func TestBearerScheme(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(a.createUser("alice"))

	rec := a.doWithHeader(http.MethodGet, "/api/users/me/", "Bearer "+token)
	a.expectStatus(rec, http.StatusOK)
	rec = a.doWithHeader(http.MethodGet, "/api/users/me/", "Basic "+token)
	a.expectStatus(rec, http.StatusUnauthorized)
}

func TestSetPassword(t *testing.T) {
	a := newTestAPI(t)
	user := a.createUser("alice")
	token := a.login(user)

	rec := a.do(http.MethodPost, "/api/users/set_password/", token, map[string]string{
		"current_password": "wrong",
		"new_password":     "n3w-pass",
	})
	a.expectStatus(rec, http.StatusBadRequest)
	if got := decodeBody[ErrorResponse](t, rec); got.Field != "current_password" {
		t.Errorf("got field %q, want current_password", got.Field)
	}

	a.expectStatus(a.do(http.MethodPost, "/api/users/set_password/", token, map[string]string{
		"current_password": "s3cret-pass",
		"new_password":     "n3w-pass",
	}), http.StatusNoContent)

	a.expectStatus(a.do(http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    user.Email,
		"password": "s3cret-pass",
	}), http.StatusBadRequest)
	a.expectStatus(a.do(http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    user.Email,
		"password": "n3w-pass",
	}), http.StatusOK)

	a.expectStatus(a.do(http.MethodPost, "/api/users/set_password/", "", map[string]string{
		"current_password": "n3w-pass",
		"new_password":     "other",
	}), http.StatusUnauthorized)
}

func TestGetUser(t *testing.T) {
	a := newTestAPI(t)
	alice := a.createUser("alice")
	bob := a.createUser("bob")
	bobToken := a.login(bob)

	rec := a.do(http.MethodGet, "/api/users/"+itoa(alice.ID)+"/", "", nil)
	a.expectStatus(rec, http.StatusOK)
	if got := decodeBody[UserResponse](t, rec); got.Username != "alice" || got.IsSubscribed {
		t.Errorf("unexpected user %+v", got)
	}

	a.expectStatus(a.do(http.MethodPost, "/api/users/"+itoa(alice.ID)+"/subscribe/", bobToken, nil), http.StatusCreated)

	rec = a.do(http.MethodGet, "/api/users/"+itoa(alice.ID)+"/", bobToken, nil)
	a.expectStatus(rec, http.StatusOK)
	if !decodeBody[UserResponse](t, rec).IsSubscribed {
		t.Error("bob should see the subscription to alice")
	}

	a.expectStatus(a.do(http.MethodGet, "/api/users/9999/", "", nil), http.StatusNotFound)
	a.expectStatus(a.do(http.MethodGet, "/api/users/abc/", "", nil), http.StatusNotFound)
}

func TestSubscriptions(t *testing.T) {
	a := newTestAPI(t)
	author := a.createUser("author")
	reader := a.createUser("reader")
	authorToken := a.login(author)
	readerToken := a.login(reader)

	tag := a.seedTag("Dinner")
	salt := a.seedIngredient("salt", "г")
	var newest RecipeResponse
	for _, name := range []string{"First", "Second", "Third"} {
		newest = a.createRecipe(authorToken, recipePayload(name, []uint{tag.ID}, line(salt.ID, 1)))
	}

	subscribePath := "/api/users/" + itoa(author.ID) + "/subscribe/"

	a.expectStatus(a.do(http.MethodPost, "/api/users/"+itoa(reader.ID)+"/subscribe/", readerToken, nil), http.StatusBadRequest)
	a.expectStatus(a.do(http.MethodPost, "/api/users/9999/subscribe/", readerToken, nil), http.StatusNotFound)
	a.expectStatus(a.do(http.MethodPost, subscribePath, "", nil), http.StatusUnauthorized)

	rec := a.do(http.MethodPost, subscribePath+"?recipes_limit=2", readerToken, nil)
	a.expectStatus(rec, http.StatusCreated)
	created := decodeBody[SubscriptionResponse](t, rec)
	if created.ID != author.ID || !created.IsSubscribed {
		t.Errorf("unexpected subscription %+v", created.UserResponse)
	}
	if created.RecipesCount != 3 {
		t.Errorf("got recipes_count %d, want 3", created.RecipesCount)
	}
	if len(created.Recipes) != 2 || created.Recipes[0].ID != newest.ID {
		t.Errorf("got %d recipes starting with %+v, want the 2 newest", len(created.Recipes), created.Recipes)
	}

	a.expectStatus(a.do(http.MethodPost, subscribePath, readerToken, nil), http.StatusBadRequest)

	rec = a.do(http.MethodGet, "/api/users/subscriptions/?recipes_limit=1", readerToken, nil)
	a.expectStatus(rec, http.StatusOK)
	page := decodeBody[PaginatedResponse[SubscriptionResponse]](t, rec)
	if page.Count != 1 || len(page.Results) != 1 {
		t.Fatalf("got %d subscriptions, want 1", page.Count)
	}
	if got := page.Results[0]; got.ID != author.ID || len(got.Recipes) != 1 || got.RecipesCount != 3 {
		t.Errorf("unexpected subscription entry %+v", got)
	}

	rec = a.do(http.MethodGet, "/api/users/subscriptions/", readerToken, nil)
	a.expectStatus(rec, http.StatusOK)
	if got := decodeBody[PaginatedResponse[SubscriptionResponse]](t, rec).Results[0]; len(got.Recipes) != 3 {
		t.Errorf("without recipes_limit every recipe is listed, got %d", len(got.Recipes))
	}

	rec = a.do(http.MethodGet, "/api/recipes/"+itoa(newest.ID)+"/", readerToken, nil)
	a.expectStatus(rec, http.StatusOK)
	if !decodeBody[RecipeResponse](t, rec).Author.IsSubscribed {
		t.Error("recipe author should be flagged as followed")
	}

	rec = a.do(http.MethodGet, "/api/users/subscriptions/", authorToken, nil)
	a.expectStatus(rec, http.StatusOK)
	if got := decodeBody[PaginatedResponse[SubscriptionResponse]](t, rec); got.Count != 0 {
		t.Errorf("subscriptions are not symmetric, got %d for the author", got.Count)
	}

	a.expectStatus(a.do(http.MethodDelete, subscribePath, readerToken, nil), http.StatusNoContent)
	a.expectStatus(a.do(http.MethodDelete, subscribePath, readerToken, nil), http.StatusBadRequest)
	a.expectStatus(a.do(http.MethodDelete, "/api/users/9999/subscribe/", readerToken, nil), http.StatusNotFound)
}
