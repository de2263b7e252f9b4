package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ballmatro-service/internal/api"
	"ballmatro-service/internal/config"
	"ballmatro-service/internal/model"
	"ballmatro-service/internal/repo"
	"ballmatro-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
}

type scoreData struct {
	Played []string `json:"played"`
	Hand   string   `json:"hand"`
	Score  int      `json:"score"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(repo.Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	rules := filepath.Join(t.TempDir(), "README.md")
	if err := os.WriteFile(rules, []byte("## The rules of BaLLMatro\nPlay the best hand.\n"), 0o644); err != nil {
		t.Fatalf("failed to write rules: %v", err)
	}

	cfg := &config.Config{
		JWT:       config.JWTConfig{Secret: "router-secret", Expire: 1},
		Optimizer: config.OptimizerConfig{Workers: 2, ShardSize: 16},
		Dataset:   config.DatasetConfig{MaxHandSize: 6, MaxItems: 300, Workers: 2},
		LLM:       config.LLMConfig{RulesPath: rules},
	}
	config.GlobalConfig = cfg

	r := gin.New()
	api.RegisterRoutes(r, service.NewContainer(db, nil, cfg))
	return r, db
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid response body %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func login(t *testing.T, r http.Handler, db *gorm.DB) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Operator@123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(&model.Admin{Username: "operator", PasswordHash: string(hash), Status: "active"}).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	status, env := doJSON(t, r, http.MethodPost, "/admin/auth/login", gin.H{"username": "operator", "password": "Operator@123"}, "")
	if status != http.StatusOK {
		t.Fatalf("login failed: %d %s", status, env.Msg)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("missing token in %s", env.Data)
	}
	return data.Token
}

func TestPingAndJokers(t *testing.T) {
	r, _ := newTestRouter(t)

	if status, _ := doJSON(t, r, http.MethodGet, "/ping", nil, ""); status != http.StatusOK {
		t.Fatalf("ping returned %d", status)
	}

	status, env := doJSON(t, r, http.MethodGet, "/ballmatro/v1/jokers", nil, "")
	if status != http.StatusOK {
		t.Fatalf("jokers returned %d", status)
	}
	var jokers []struct {
		Name string `json:"name"`
		Card string `json:"card"`
	}
	if err := json.Unmarshal(env.Data, &jokers); err != nil {
		t.Fatalf("failed to decode jokers: %v", err)
	}
	if len(jokers) != 41 || jokers[0].Name != "Blank" || !strings.HasPrefix(jokers[0].Card, "🂿") {
		t.Fatalf("unexpected joker catalog head %+v (len %d)", jokers[0], len(jokers))
	}
}

func TestScoreEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		score  int
	}{
		{name: "text form", body: gin.H{"available": "[3♥,3♦]", "played": "[3♥,3♦]"}, status: http.StatusOK, score: 32},
		{name: "list form", body: gin.H{"available": []string{"2♥", "3♦"}, "played": []string{"3♦"}}, status: http.StatusOK, score: 8},
		{name: "null play", body: gin.H{"available": "[3♥,3♦]", "played": nil}, status: http.StatusOK, score: 0},
		{name: "invalid list", body: gin.H{"available": "3♥,3♦", "played": "[3♥]"}, status: http.StatusBadRequest},
		{name: "unknown joker", body: gin.H{"available": "[3♥,🂿 Shard]", "played": "[3♥]"}, status: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		status, env := doJSON(t, r, http.MethodPost, "/ballmatro/v1/score", tt.body, "")
		if status != tt.status {
			t.Fatalf("%s: expected status %d, got %d (%s)", tt.name, tt.status, status, env.Msg)
		}
		if status != http.StatusOK {
			continue
		}
		var data scoreData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("%s: failed to decode score: %v", tt.name, err)
		}
		if data.Score != tt.score {
			t.Fatalf("%s: expected score %d, got %d", tt.name, tt.score, data.Score)
		}
	}
}

func TestOptimizeEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	status, env := doJSON(t, r, http.MethodPost, "/ballmatro/v1/optimize", gin.H{"available": "[2♥,3♦]"}, "")
	if status != http.StatusOK {
		t.Fatalf("optimize returned %d: %s", status, env.Msg)
	}
	var data scoreData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if data.Score != 8 || len(data.Played) != 1 || data.Played[0] != "3♦" {
		t.Fatalf("unexpected optimal play %+v", data)
	}
}

func TestOptimizeRejectsLargePools(t *testing.T) {
	r, _ := newTestRouter(t)

	var pool []string
	for _, rank := range []string{"2", "3", "4", "5", "6"} {
		for _, suit := range []string{"♣", "♦", "♠", "♥"} {
			pool = append(pool, rank+suit)
		}
	}
	status, env := doJSON(t, r, http.MethodPost, "/ballmatro/v1/optimize", gin.H{"available": pool[:17]}, "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a 17 card pool, got %d (%s)", status, env.Msg)
	}
	if !strings.Contains(env.Msg, "too large") {
		t.Fatalf("unexpected error message %q", env.Msg)
	}
}

func TestMissingResources(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{
		"/ballmatro/v1/datasets/missing",
		"/ballmatro/v1/datasets/missing/items",
		"/ballmatro/v1/benchmarks/missing",
	} {
		if status, _ := doJSON(t, r, http.MethodGet, path, nil, ""); status != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, status)
		}
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	status, _ := doJSON(t, r, http.MethodPost, "/admin/datasets", gin.H{"algorithm": "random", "handSize": 3, "n": 4}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	status, _ = doJSON(t, r, http.MethodPost, "/admin/datasets", gin.H{"algorithm": "random", "handSize": 3, "n": 4}, "not-a-token")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a bad token, got %d", status)
	}
}

func TestDatasetAndBenchmarkFlow(t *testing.T) {
	r, db := newTestRouter(t)
	token := login(t, r, db)

	status, env := doJSON(t, r, http.MethodGet, "/admin/me", nil, token)
	if status != http.StatusOK || !strings.Contains(string(env.Data), "operator") {
		t.Fatalf("unexpected profile response %d %s", status, env.Data)
	}

	status, env = doJSON(t, r, http.MethodPost, "/admin/datasets", gin.H{"algorithm": "bogus", "handSize": 3}, token)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown algorithm, got %d", status)
	}

	status, env = doJSON(t, r, http.MethodPost, "/admin/datasets", gin.H{"algorithm": "random", "handSize": 3, "n": 6, "seed": 5}, token)
	if status != http.StatusOK {
		t.Fatalf("generate failed: %d %s", status, env.Msg)
	}
	var ds struct {
		ID        string `json:"id"`
		ItemCount int    `json:"itemCount"`
		TestCount int    `json:"testCount"`
	}
	if err := json.Unmarshal(env.Data, &ds); err != nil {
		t.Fatalf("failed to decode dataset: %v", err)
	}
	if ds.ItemCount != 6 || ds.TestCount != 3 {
		t.Fatalf("unexpected dataset %+v", ds)
	}

	if status, _ := doJSON(t, r, http.MethodGet, "/ballmatro/v1/datasets/"+ds.ID, nil, ""); status != http.StatusOK {
		t.Fatalf("get dataset returned %d", status)
	}

	status, env = doJSON(t, r, http.MethodGet, "/ballmatro/v1/datasets/"+ds.ID+"/items?split=test&page=1&size=10", nil, "")
	if status != http.StatusOK {
		t.Fatalf("list items returned %d", status)
	}
	var page struct {
		Items []struct {
			Output string `json:"output"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("failed to decode items: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 3 {
		t.Fatalf("unexpected page %+v", page)
	}

	if status, _ := doJSON(t, r, http.MethodGet, "/ballmatro/v1/datasets/"+ds.ID+"/items?page=0", nil, ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for page=0, got %d", status)
	}

	plays := make([]string, len(page.Items))
	for i, item := range page.Items {
		plays[i] = item.Output
	}
	status, env = doJSON(t, r, http.MethodPost, "/ballmatro/v1/benchmarks", gin.H{"datasetId": ds.ID, "model": "oracle", "plays": plays}, "")
	if status != http.StatusOK {
		t.Fatalf("submit failed: %d %s", status, env.Msg)
	}
	var run struct {
		Run struct {
			ID string `json:"id"`
		} `json:"run"`
		Summary struct {
			NormalizedScore float64 `json:"normalizedScore"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(env.Data, &run); err != nil {
		t.Fatalf("failed to decode run: %v", err)
	}
	if run.Summary.NormalizedScore != 1 {
		t.Fatalf("expected a perfect run, got %+v", run.Summary)
	}

	if status, _ := doJSON(t, r, http.MethodGet, "/ballmatro/v1/benchmarks/"+run.Run.ID, nil, ""); status != http.StatusOK {
		t.Fatalf("get benchmark returned %d", status)
	}

	status, _ = doJSON(t, r, http.MethodPost, "/ballmatro/v1/benchmarks", gin.H{"datasetId": ds.ID, "plays": []string{"[2♥]"}}, "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a play count mismatch, got %d", status)
	}

	status, _ = doJSON(t, r, http.MethodPost, "/admin/datasets/"+ds.ID+"/reoptimize", nil, token)
	if status != http.StatusOK {
		t.Fatalf("reoptimize returned %d", status)
	}

	status, _ = doJSON(t, r, http.MethodPost, "/admin/benchmarks/attempt", gin.H{"datasetId": ds.ID, "split": "train"}, token)
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an llm key, got %d", status)
	}
}

func TestScoreWebSocket(t *testing.T) {
	r, _ := newTestRouter(t)
	server := httptest.NewServer(r)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/score"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	type reply struct {
		Type string          `json:"type"`
		Seq  int64           `json:"seq"`
		Data json.RawMessage `json:"data"`
	}
	exchange := func(msg interface{}) reply {
		t.Helper()
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		var out reply
		if err := conn.ReadJSON(&out); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		return out
	}

	out := exchange(gin.H{"type": "score", "data": gin.H{"available": "[3♥,3♦]", "played": []string{"3♥", "3♦"}}})
	var data scoreData
	if err := json.Unmarshal(out.Data, &data); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if out.Type != "result" || out.Seq != 1 || data.Score != 32 {
		t.Fatalf("unexpected score reply %+v", out)
	}

	out = exchange(gin.H{"type": "shuffle"})
	if out.Type != "error" || out.Seq != 2 {
		t.Fatalf("unexpected reply to an unknown type %+v", out)
	}

	out = exchange(gin.H{"type": "optimize", "data": gin.H{"available": "[2♥,3♦]"}})
	if err := json.Unmarshal(out.Data, &data); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if out.Type != "result" || out.Seq != 3 || data.Score != 8 {
		t.Fatalf("unexpected optimize reply %+v", out)
	}

	large := strings.Split("2♣,2♦,2♠,2♥,3♣,3♦,3♠,3♥,4♣,4♦,4♠,4♥,5♣,5♦,5♠,5♥,6♣", ",")
	out = exchange(gin.H{"type": "optimize", "data": gin.H{"available": large}})
	if out.Type != "error" || out.Seq != 4 {
		t.Fatalf("unexpected reply to a large pool %+v", out)
	}
}
