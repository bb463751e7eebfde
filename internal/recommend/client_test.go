package recommend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campus-research/portal/internal/models"
)

func sampleStudies(n int) []*models.Study {
	out := make([]*models.Study, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &models.Study{
			ID:          uuid.New(),
			Title:       "Study",
			Description: "Description",
		})
	}
	return out
}

func TestRecommendStudies(t *testing.T) {
	studies := sampleStudies(3)
	user := models.User{
		ID:       uuid.New(),
		Name:     "Maya Lin",
		Metadata: &models.UserMetadata{Major: "Psychology", Age: 22},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.User.Name != "Maya Lin" || req.User.Major != "Psychology" {
			t.Fatalf("unexpected profile: %+v", req.User)
		}
		if len(req.Studies) != 3 || req.Language != "ko" {
			t.Fatalf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode([]uuid.UUID{studies[1].ID})
	}))
	defer srv.Close()

	client := New(srv.URL, nil, time.Minute, nil)
	ids := client.RecommendStudies(context.Background(), user, studies, "ko")
	if len(ids) != 1 || ids[0] != studies[1].ID {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestRecommendStudiesDisabled(t *testing.T) {
	client := New("", nil, time.Minute, nil)
	if ids := client.RecommendStudies(context.Background(), models.User{}, sampleStudies(2), "en"); ids != nil {
		t.Fatalf("disabled client returned %v", ids)
	}
}

func TestRecommendStudiesDegradesOnFailure(t *testing.T) {
	user := models.User{ID: uuid.New(), Name: "Sam"}

	// Service errors, garbage payloads and dead endpoints all yield nothing.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	client := New(srv.URL, nil, time.Minute, nil)
	if ids := client.RecommendStudies(context.Background(), user, sampleStudies(1), "en"); ids != nil {
		t.Fatalf("503 returned %v", ids)
	}
	srv.Close()

	if ids := client.RecommendStudies(context.Background(), user, sampleStudies(1), "en"); ids != nil {
		t.Fatalf("dead endpoint returned %v", ids)
	}

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()
	client = New(srv.URL, nil, time.Minute, nil)
	if ids := client.RecommendStudies(context.Background(), user, sampleStudies(1), "en"); ids != nil {
		t.Fatalf("garbage payload returned %v", ids)
	}
}
