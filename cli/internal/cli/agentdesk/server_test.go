package agentdesk

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
)

// newFakeAPI serves a small agentdesk deployment:
//
//	agent A1: sessions S1, S2
//	S1: task T1 (Intro, skill K1)   S2: task T2 (Review)
//
// POST /chat/test answers "next" with a switchTask call to T2 and echoes
// everything else.
func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	agents := map[string]api.Agent{
		"A1": {ID: "A1", Name: "Tutor", Role: "instructor", Sessions: []string{"S1", "S2"}},
	}
	sessions := map[string]api.Session{
		"S1": {ID: "S1", Name: "Morning", AgentID: "A1", Tasks: []string{"T1"}},
		"S2": {ID: "S2", Name: "Afternoon", AgentID: "A1", Tasks: []string{"T2"}},
	}
	tasks := map[string]api.Task{
		"T1": {ID: "T1", Name: "Intro", Skills: []string{"K1"}},
		"T2": {ID: "T2", Name: "Review"},
	}

	r := mux.NewRouter()
	r.HandleFunc("/agents", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, api.ListResponse[api.Agent]{
			Items:         []api.Agent{agents["A1"]},
			NextPageToken: req.URL.Query().Get("max_results"),
		})
	}).Methods(http.MethodGet)
	r.HandleFunc("/agents/{id}", func(w http.ResponseWriter, req *http.Request) {
		a, ok := agents[mux.Vars(req)["id"]]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "agent not found"})
			return
		}
		writeJSON(w, http.StatusOK, a)
	}).Methods(http.MethodGet)
	r.HandleFunc("/agents/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, sessions[mux.Vars(req)["id"]])
	}).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, tasks[mux.Vars(req)["id"]])
	}).Methods(http.MethodGet)
	r.HandleFunc("/chat/test", func(w http.ResponseWriter, req *http.Request) {
		var body api.ChatRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if strings.TrimSpace(body.Message) == "next" {
			writeJSON(w, http.StatusOK, api.ChatResponse{
				Message: "Moving on.",
				Action: &api.FunctionCall{
					Name: api.FunctionSwitchTask,
					Args: map[string]interface{}{"task_id": "T2"},
				},
			})
			return
		}
		writeJSON(w, http.StatusOK, api.ChatResponse{Message: "echo: " + body.Message})
	}).Methods(http.MethodPost)
	r.HandleFunc("/chat/test-skill", func(w http.ResponseWriter, req *http.Request) {
		var body api.SkillRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, api.ChatResponse{Message: "skill " + body.SkillID + ": " + body.Message})
	}).Methods(http.MethodPost)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}
