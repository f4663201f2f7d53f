package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"
)

// 1x1 transparent PNG
const testImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type testAPI struct {
	t         *testing.T
	router    http.Handler
	db        database.Database
	mediaRoot string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	dsn := "file:" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	gormDB, err := database.Open(database.Options{
		Driver:       database.DriverSQLite,
		URL:          dsn,
		MaxOpenConns: 1,
		Logger:       logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	db := database.New(gormDB)
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	mediaRoot := t.TempDir()
	cfg := map[string]string{
		"SECRET_KEY":       "test-secret",
		"LOGIN_RATE_LIMIT": "1000",
		"MEDIA_ROOT":       mediaRoot,
		"MEDIA_URL":        "/media/",
	}

	return &testAPI{
		t:         t,
		router:    newRouter(db, withConfig(cfg)),
		db:        db,
		mediaRoot: mediaRoot,
	}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// doRaw sends body verbatim with the given content type
func (a *testAPI) doRaw(method, path, token, contentType, body string) *httptest.ResponseRecorder {
	a.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// doWithHeader sends a bodiless request with a raw Authorization header
func (a *testAPI) doWithHeader(method, path, authorization string) *httptest.ResponseRecorder {
	a.t.Helper()

	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", authorization)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) expectStatus(rec *httptest.ResponseRecorder, want int) {
	a.t.Helper()
	if rec.Code != want {
		a.t.Fatalf("got status %d, want %d: %s", rec.Code, want, rec.Body.String())
	}
}

func (a *testAPI) createUser(username string) *models.User {
	a.t.Helper()

	user := &models.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Tester",
	}
	if err := user.SetPassword("s3cret-pass"); err != nil {
		a.t.Fatalf("failed to hash password: %v", err)
	}
	if err := a.db.UserRepo().Add(a.t.Context(), user); err != nil {
		a.t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// login obtains a token through the login endpoint
func (a *testAPI) login(user *models.User) string {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    user.Email,
		"password": "s3cret-pass",
	})
	a.expectStatus(rec, http.StatusOK)
	return decodeBody[TokenResponse](a.t, rec).AuthToken
}

func (a *testAPI) seedIngredient(name string, unit models.MeasurementUnit) models.Ingredient {
	a.t.Helper()

	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := a.db.IngredientRepo().Add(a.t.Context(), &ingredient); err != nil {
		a.t.Fatalf("failed to seed ingredient %s: %v", name, err)
	}
	return ingredient
}

func (a *testAPI) seedTag(name string) models.Tag {
	a.t.Helper()

	tag := models.Tag{Name: name, Color: models.DefaultTagColor, Slug: strings.ToLower(name)}
	if err := a.db.TagRepo().Add(a.t.Context(), &tag); err != nil {
		a.t.Fatalf("failed to seed tag %s: %v", name, err)
	}
	return tag
}

func recipePayload(name string, tags []uint, ingredients ...map[string]any) map[string]any {
	return map[string]any{
		"name":         name,
		"text":         "Mix and serve.",
		"cooking_time": 10,
		"image":        testImage,
		"tags":         tags,
		"ingredients":  ingredients,
	}
}

func line(id uint, amount int) map[string]any {
	return map[string]any{"id": id, "amount": amount}
}

func (a *testAPI) createRecipe(token string, payload map[string]any) RecipeResponse {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/recipes/", token, payload)
	a.expectStatus(rec, http.StatusCreated)
	return decodeBody[RecipeResponse](a.t, rec)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var body T
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func recipePath(id uint, suffix string) string {
	return fmt.Sprintf("/api/recipes/%d/%s", id, suffix)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
