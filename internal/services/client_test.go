package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/setsvm/novi/internal/models"
	"github.com/setsvm/novi/internal/shared"
	"github.com/setsvm/novi/internal/storage"
	tu "github.com/setsvm/novi/internal/testing"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

// newTestClient starts a gateway stub and returns a client bound to fresh storage.
func newTestClient(t *testing.T, h http.HandlerFunc) (*APIClient, *storage.MemoryStorage) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	store := storage.NewMemoryStorage()
	api := NewAPIService(APIServiceOpts{BaseURL: server.URL})
	return api.Bind(store), store
}

func loggedIn(t *testing.T, store storage.Storage, access string) {
	t.Helper()
	data, _ := json.Marshal(map[string]string{"access_token": access, "token_type": "Bearer"})
	if err := store.Set(storage.KeyToken, string(data)); err != nil {
		t.Fatalf("failed to seed token: %v", err)
	}
}

func TestAPIClientAuth(t *testing.T) {
	t.Run("Login Persists Token", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login/" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}

			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["email"] != "ada@example.com" || body["password"] != "secret123" {
				t.Errorf("unexpected credentials %v", body)
			}

			w.Write([]byte(`{"access": "acc", "refresh": "ref",
				"user": {"id": 7, "username": "ada", "email": "ada@example.com", "first_name": "Ada", "last_name": "L"}}`))
		})

		if client.IsAuthenticated() {
			t.Fatal("should not be authenticated before login")
		}

		profile, err := client.Login(context.Background(), "ada@example.com", "secret123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if profile == nil || profile.ID != "7" || profile.DisplayName() != "Ada" {
			t.Errorf("unexpected profile %+v", profile)
		}
		if !client.IsAuthenticated() {
			t.Error("expected authenticated after login")
		}

		token, err := client.Token()
		if err != nil || token.AccessToken != "acc" || token.RefreshToken != "ref" {
			t.Errorf("unexpected token %+v err=%v", token, err)
		}
		if !token.Expiry.IsZero() {
			t.Error("token expiry must not be set")
		}
		if _, ok, _ := store.Get(storage.KeyUser); ok {
			t.Error("api client must not write the user slot")
		}
	})

	t.Run("Login Profile From Token Claims", func(t *testing.T) {
		access := signedToken(t, jwt.MapClaims{
			"user_id":    12,
			"username":   "grace",
			"email":      "grace@example.com",
			"first_name": "",
			"exp":        time.Now().Add(time.Hour).Unix(),
		})
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"access": access, "refresh": "r"})
		})

		profile, err := client.Login(context.Background(), "grace@example.com", "pw123456")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if profile == nil || profile.ID != "12" || profile.DisplayName() != "grace" {
			t.Errorf("unexpected profile %+v", profile)
		}
	})

	t.Run("Login Opaque Token Has No Profile", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access": "opaque"}`))
		})

		profile, err := client.Login(context.Background(), "a@b.co", "pw")
		if err != nil || profile != nil {
			t.Errorf("expected nil profile and no error, got %+v %v", profile, err)
		}
	})

	t.Run("Login Rejected", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "Invalid credentials"}`))
		})

		_, err := client.Login(context.Background(), "a@b.co", "wrong")
		if !errors.Is(err, shared.ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "Invalid credentials" {
			t.Errorf("expected backend message, got %v", err)
		}
		if store.Len() != 0 {
			t.Error("failed login must not persist anything")
		}
	})

	t.Run("Login Missing Access Token", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})

		if _, err := client.Login(context.Background(), "a@b.co", "pw"); !errors.Is(err, shared.ErrAuthentication) {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("Signup", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/auth/signup/" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body signupRequest
			json.NewDecoder(r.Body).Decode(&body)
			if body.Username != "ada@example.com" || body.FirstName != "Ada" {
				t.Errorf("unexpected signup body %+v", body)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"message": "User created successfully"}`))
		})

		if err := client.Signup(context.Background(), "Ada", "ada@example.com", "password1"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if client.IsAuthenticated() {
			t.Error("signup must not log in")
		}
	})

	t.Run("Signup Duplicate", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "Email already exists"}`))
		})

		err := client.Signup(context.Background(), "Ada", "ada@example.com", "password1")
		if !errors.Is(err, shared.ErrValidation) || !strings.Contains(err.Error(), "Email already exists") {
			t.Errorf("expected validation error with message, got %v", err)
		}
	})

	t.Run("Logout Clears Token", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		loggedIn(t, store, "acc")

		client.Logout(context.Background())
		if client.IsAuthenticated() {
			t.Error("expected logged out")
		}
	})

	t.Run("Corrupt Token Is Not Authenticated", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		store.Set(storage.KeyToken, "{garbage")

		if client.IsAuthenticated() {
			t.Error("corrupt token should read as unauthenticated")
		}
	})
}

func TestAPIClientContent(t *testing.T) {
	t.Run("Requires Token", func(t *testing.T) {
		called := false
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

		_, err := client.GetUserContent(context.Background())
		if !errors.Is(err, shared.ErrAuthentication) || !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected authentication error, got %v", err)
		}
		if called {
			t.Error("no request should be sent without a token")
		}
	})

	t.Run("GetUserContent", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer acc" {
				t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
			}
			w.Write([]byte(`[{"id": 2, "title": "B", "content_type": "quiz", "created_at": "2025-03-02T00:00:00Z"},
				{"id": 1, "title": "A", "content_type": "lesson", "created_at": "2025-03-01T00:00:00Z"}]`))
		})
		loggedIn(t, store, "acc")

		items, err := client.GetUserContent(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 || items[0].ID != "2" || items[1].ContentType != models.Lesson {
			t.Errorf("unexpected items %+v", items)
		}
	})

	t.Run("GetUserContent Paginated", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"count": 1, "results": [{"id": 5, "title": "Paged"}]}`))
		})
		loggedIn(t, store, "acc")

		items, err := client.GetUserContent(context.Background())
		if err != nil || len(items) != 1 || items[0].Title != "Paged" {
			t.Errorf("unexpected result %+v err=%v", items, err)
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Given token not valid for any token type"}`))
		})
		loggedIn(t, store, "stale")

		_, err := client.GetUserContent(context.Background())
		if !errors.Is(err, shared.ErrAuthentication) {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("GetContent Not Found", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/content/99/" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail": "Not found."}`))
		})
		loggedIn(t, store, "acc")

		if _, err := client.GetContent(context.Background(), "99"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateContent Sends Only Set Fields", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch {
				t.Errorf("expected PATCH, got %s", r.Method)
			}
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if len(body) != 1 || body["title"] != "New" {
				t.Errorf("unexpected patch body %v", body)
			}
			w.Write([]byte(`{"id": 3, "title": "New"}`))
		})
		loggedIn(t, store, "acc")

		title := "New"
		item, err := client.UpdateContent(context.Background(), "3", models.ContentFields{Title: &title})
		if err != nil || item.Title != "New" {
			t.Errorf("unexpected result %+v err=%v", item, err)
		}
	})

	t.Run("UpdateContent Empty", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		loggedIn(t, store, "acc")

		if _, err := client.UpdateContent(context.Background(), "3", models.ContentFields{}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("DeleteContent", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/api/content/4/" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
		})
		loggedIn(t, store, "acc")

		if err := client.DeleteContent(context.Background(), "4"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("SaveContent", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["title"] != "Chapter" || body["content_type"] != "lesson" || body["body"] != "<p>x</p>" {
				t.Errorf("unexpected save body %v", body)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": 10, "title": "Chapter"}`))
		})
		loggedIn(t, store, "acc")

		payload := models.NewSavePayload("Chapter.pdf", "Philosophie", "Grade 1", models.Lesson, "<p>x</p>", time.Now())
		item, err := client.SaveContent(context.Background(), payload)
		if err != nil || item.ID != "10" {
			t.Errorf("unexpected result %+v err=%v", item, err)
		}
	})
}

func TestAPIClientUpload(t *testing.T) {
	t.Run("Multipart Upload", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/pdf/upload" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("failed to parse multipart: %v", err)
				return
			}
			if r.FormValue("subject") != "Arabe" || r.FormValue("grade") != "Grade 3" || r.FormValue("content_type") != "quiz" {
				t.Errorf("unexpected fields %v", r.MultipartForm.Value)
			}
			f, header, err := r.FormFile("file")
			if err != nil {
				t.Errorf("missing file: %v", err)
				return
			}
			data, _ := io.ReadAll(f)
			if header.Filename != "doc.pdf" || string(data) != "%PDF-1.4" {
				t.Errorf("unexpected file %s %q", header.Filename, data)
			}
			w.Write([]byte(`{"htmlContent": "<h1>doc</h1>"}`))
		})
		loggedIn(t, store, "acc")

		result, err := client.UploadPDF(context.Background(), models.Upload{
			FileName:    "doc.pdf",
			File:        strings.NewReader("%PDF-1.4"),
			Subject:     "Arabe",
			Grade:       "Grade 3",
			ContentType: models.Quiz,
		})
		if err != nil || result.HTMLContent != "<h1>doc</h1>" {
			t.Errorf("unexpected result %+v err=%v", result, err)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		loggedIn(t, store, "acc")

		if _, err := client.UploadPDF(context.Background(), models.Upload{}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Unreadable File", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		loggedIn(t, store, "acc")

		_, err := client.UploadPDF(context.Background(), models.Upload{FileName: "a.pdf", File: &tu.FReader{}})
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Empty Conversion", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": true}`))
		})
		loggedIn(t, store, "acc")

		_, err := client.UploadPDF(context.Background(), models.Upload{FileName: "a.pdf", File: strings.NewReader("x")})
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("Too Large", func(t *testing.T) {
		client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		})
		loggedIn(t, store, "acc")

		_, err := client.UploadPDF(context.Background(), models.Upload{FileName: "a.pdf", File: strings.NewReader("x")})
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestTokenClaims(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	access := signedToken(t, jwt.MapClaims{"exp": exp.Unix(), "email": "x@y.z"})

	got, ok := TokenExpiry(access)
	if !ok || !got.Equal(exp) {
		t.Errorf("TokenExpiry() = %v %v, want %v", got, ok, exp)
	}

	if _, ok := TokenExpiry("not-a-jwt"); ok {
		t.Error("expected no expiry for opaque token")
	}

	if p := ProfileFromToken(signedToken(t, jwt.MapClaims{"exp": exp.Unix()})); p != nil {
		t.Errorf("expected nil profile without identity claims, got %+v", p)
	}
}
