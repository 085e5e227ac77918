//go:build !integration

package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sodai-platform/internal/domain/model"
)

func TestFoldASCII(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hoş geldin", "Hos geldin"},
		{"ÇĞİÖŞÜ çğıöşü", "cgiosu cgiosu"},
		{"plain ascii stays", "plain ascii stays"},
		{"emoji 🎯 dropped", "emoji  dropped"},
	}
	for _, c := range cases {
		if got := foldASCII(c.in); got != c.want {
			t.Errorf("foldASCII(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBuildCopyPrompt(t *testing.T) {
	req := model.CopyRequest{
		Niche:       "ev tekstili",
		Platform:    "instagram",
		Style:       "minimal",
		AgeGroup:    "26-35",
		Gender:      "Kadın",
		IncomeLevel: "Lüks",
	}
	prompt := buildCopyPrompt(req)

	for _, want := range []string{
		"ev tekstili",
		"instagram",
		"26-35 yaş Kadın",
		"Kariyer odaklı",
		"Sofistike ve prestijli",
		"HEDEF KİTLE ANALİZİ",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyzeAudience_Fallbacks(t *testing.T) {
	p := analyzeAudience(model.CopyRequest{AgeGroup: "12-17", Gender: "?", IncomeLevel: "?"})
	if p.Psychographic != "Genel hedef kitle" {
		t.Errorf("unexpected psychographic fallback: %s", p.Psychographic)
	}
	if p.PreferredTone != "Samimi ve erişilebilir" {
		t.Errorf("unexpected tone fallback: %s", p.PreferredTone)
	}
}

func TestDemoCopywriter(t *testing.T) {
	d := NewDemoCopywriter()

	t.Run("instagram content carries platform hashtags", func(t *testing.T) {
		content, usage, err := d.GenerateCopy(context.Background(), model.CopyRequest{
			Niche: "kozmetik", Platform: "instagram", Style: "minimal", IncomeLevel: "Premium",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !strings.Contains(content, "#instagram") {
			t.Errorf("missing platform hashtag: %s", content)
		}
		if !strings.Contains(content, "Premium kalitede") {
			t.Errorf("premium variant not selected: %s", content)
		}
		if usage.PromptTokens == 0 || usage.CompletionTokens == 0 {
			t.Errorf("expected estimated usage, got %+v", usage)
		}
	})

	t.Run("deterministic for equal input", func(t *testing.T) {
		req := model.CopyRequest{Niche: "moda", Platform: "tiktok"}
		a, _, _ := d.GenerateCopy(context.Background(), req)
		b, _, _ := d.GenerateCopy(context.Background(), req)
		if a != b {
			t.Error("demo content must be deterministic")
		}
	})
}

func TestFalVideoGenerator(t *testing.T) {
	t.Run("single image runs the image-to-video queue", func(t *testing.T) {
		var submitted map[string]interface{}
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()

		mux.HandleFunc("/fal-ai/minimax/hailuo-02/standard/image-to-video", func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Key test-key" {
				t.Errorf("wrong auth header: %q", got)
			}
			_ = json.NewDecoder(r.Body).Decode(&submitted)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"request_id":   "req-1",
				"status_url":   srv.URL + "/status/req-1",
				"response_url": srv.URL + "/response/req-1",
			})
		})
		mux.HandleFunc("/status/req-1", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "COMPLETED"})
		})
		mux.HandleFunc("/response/req-1", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"video": map[string]string{"url": "https://cdn.fal.example/clip.mp4"},
			})
		})

		g, err := NewFalVideoGenerator("test-key")
		if err != nil {
			t.Fatal(err)
		}
		g.base = srv.URL
		g.pollEvery = 5 * time.Millisecond

		result, err := g.GenerateVideo(context.Background(), model.VideoRequest{
			Prompt:    "Hoş bir gösterim",
			ImageURLs: []string{"https://cdn.example/img.jpg"},
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if result.VideoURL != "https://cdn.fal.example/clip.mp4" {
			t.Errorf("unexpected video url: %s", result.VideoURL)
		}
		if submitted["prompt"] != "Hos bir gosterim" {
			t.Errorf("prompt not ASCII folded: %v", submitted["prompt"])
		}
		if submitted["duration"] != "6" || submitted["resolution"] != "768P" {
			t.Errorf("render parameters wrong: %v", submitted)
		}
	})

	t.Run("multiple images run the composite model", func(t *testing.T) {
		var path string
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()

		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasPrefix(r.URL.Path, "/status/"):
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "COMPLETED"})
			case strings.HasPrefix(r.URL.Path, "/response/"):
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"images": []map[string]string{{"url": "https://cdn.fal.example/composite.jpg"}},
				})
			default:
				path = r.URL.Path
				_ = json.NewEncoder(w).Encode(map[string]string{
					"request_id":   "req-2",
					"status_url":   srv.URL + "/status/req-2",
					"response_url": srv.URL + "/response/req-2",
				})
			}
		})

		g, _ := NewFalVideoGenerator("test-key")
		g.base = srv.URL
		g.pollEvery = 5 * time.Millisecond

		result, err := g.GenerateVideo(context.Background(), model.VideoRequest{
			Prompt:    "kombinasyon",
			ImageURLs: []string{"https://x/1.jpg", "https://x/2.jpg"},
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if path != "/fal-ai/nano-banana/edit" {
			t.Errorf("expected composite model path, got %s", path)
		}
		if result.VideoURL != "https://cdn.fal.example/composite.jpg" {
			t.Errorf("unexpected url: %s", result.VideoURL)
		}
	})

	t.Run("queue failure is surfaced", func(t *testing.T) {
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()

		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/status/") {
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "FAILED", "error": "content rejected"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"request_id":   "req-3",
				"status_url":   srv.URL + "/status/req-3",
				"response_url": srv.URL + "/response/req-3",
			})
		})

		g, _ := NewFalVideoGenerator("test-key")
		g.base = srv.URL
		g.pollEvery = 5 * time.Millisecond

		_, err := g.GenerateVideo(context.Background(), model.VideoRequest{
			Prompt:    "x",
			ImageURLs: []string{"https://x/1.jpg"},
		})
		if err == nil || !strings.Contains(err.Error(), "content rejected") {
			t.Fatalf("expected queue failure, got: %v", err)
		}
	})
}

func TestLimitWrapper(t *testing.T) {
	t.Run("zero limit returns the inner adapter", func(t *testing.T) {
		inner := NewDemoCopywriter()
		if NewLimitedCopywriter(inner, 0) != inner {
			t.Error("expected pass-through for zero limit")
		}
	})

	t.Run("limited adapter still answers", func(t *testing.T) {
		c := NewLimitedCopywriter(NewDemoCopywriter(), 2)
		content, _, err := c.GenerateCopy(context.Background(), model.CopyRequest{Niche: "x", Platform: "blog"})
		if err != nil || content == "" {
			t.Fatalf("wrapped call failed: %v", err)
		}
	})
}
