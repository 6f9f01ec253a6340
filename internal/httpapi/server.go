package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hawlion/ai-planner/internal/calendarmirror"
	"github.com/hawlion/ai-planner/internal/executor"
	"github.com/hawlion/ai-planner/internal/llm"
	"github.com/hawlion/ai-planner/internal/repository"
	"github.com/hawlion/ai-planner/internal/scheduler"
	"github.com/hawlion/ai-planner/internal/service"
)

// Server holds every dependency a handler needs and owns the refresh-push
// websocket hub. Mirror is nil when no calendar-mirror provider is
// configured, LLM may be nil and Timezone may be empty (see their comments).
type Server struct {
	Tasks      repository.TaskRepo
	Blocks     repository.CalendarBlockRepo
	Meetings   repository.MeetingRepo
	Candidates repository.ActionItemCandidateRepo
	Approvals  repository.ApprovalRequestRepo
	Proposals  repository.SchedulingProposalRepo
	Sync       repository.SyncStatusRepo
	Profiles   repository.ProfileRepo
	Audit      repository.AuditRepo

	Executor *executor.Executor
	Mirror   *calendarmirror.Mirror
	Chat     service.ChatService
	Metrics  scheduler.MetricsRecorder
	LLM      llm.LLMClient // nil disables LLM-backed meeting extraction
	Timezone string        // IANA zone passed to ExtractPrimary; "UTC" if empty

	Now func() time.Time

	hub *wsHub
}

func NewServer(s *Server) *Server {
	s.hub = newWSHub()
	return s
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Routes builds the HTTP surface named in spec.md's External Interfaces:
// tasks, projects, calendar/blocks, meetings, action-items/{id}/(approve|
// reject), approvals, approvals/{id}/resolve, scheduling/proposals,
// scheduling/proposals/{id}/apply, briefings/daily, sync/status,
// nli/command, assistant/chat, profile, graph/*, plus the /ws refresh push.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("POST /tasks", s.handleCreateTask)
	mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)

	mux.HandleFunc("GET /projects", s.handleListProjects)

	mux.HandleFunc("GET /calendar/blocks", s.handleListBlocks)
	mux.HandleFunc("POST /calendar/blocks", s.handleCreateBlock)
	mux.HandleFunc("PATCH /calendar/blocks/{id}", s.handleUpdateBlock)
	mux.HandleFunc("DELETE /calendar/blocks/{id}", s.handleDeleteBlock)

	mux.HandleFunc("POST /meetings", s.handleCreateMeeting)
	mux.HandleFunc("GET /meetings/{id}", s.handleGetMeeting)

	mux.HandleFunc("POST /action-items/{id}/approve", s.handleApproveActionItem)
	mux.HandleFunc("POST /action-items/{id}/reject", s.handleRejectActionItem)

	mux.HandleFunc("GET /approvals", s.handleListApprovals)
	mux.HandleFunc("POST /approvals/{id}/resolve", s.handleResolveApproval)

	mux.HandleFunc("POST /scheduling/proposals", s.handleGenerateProposals)
	mux.HandleFunc("POST /scheduling/proposals/{id}/apply", s.handleApplyProposal)

	mux.HandleFunc("GET /briefings/daily", s.handleDailyBriefing)

	mux.HandleFunc("GET /sync/status", s.handleSyncStatus)

	mux.HandleFunc("POST /nli/command", s.handleNLICommand)
	mux.HandleFunc("POST /assistant/chat", s.handleAssistantChat)

	mux.HandleFunc("GET /profile", s.handleGetProfile)
	mux.HandleFunc("PUT /profile", s.handlePutProfile)

	mux.HandleFunc("GET /graph/status", s.handleGraphStatus)

	mux.HandleFunc("GET /ws", s.handleWebsocket)

	return mux
}

// pushRefresh notifies every connected websocket client that the given
// resource tags changed. Called after any handler mutates state the UI
// might be showing, mirroring the assistant chat contract's refresh tags.
func (s *Server) pushRefresh(tags ...string) {
	if len(tags) == 0 {
		return
	}
	s.hub.broadcast(tags)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsHub fans refresh-tag broadcasts out to every connected client; a slow or
// gone client is dropped rather than blocking the others.
type wsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []string
}

func newWSHub() *wsHub {
	return &wsHub{clients: map[*websocket.Conn]chan []string{}}
}

func (h *wsHub) add(conn *websocket.Conn) chan []string {
	ch := make(chan []string, 8)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *wsHub) broadcast(tags []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- tags:
		default:
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := s.hub.add(conn)
	defer s.hub.remove(conn)

	for tags := range ch {
		if err := conn.WriteJSON(refreshPush{Refresh: tags}); err != nil {
			return
		}
	}
}

type refreshPush struct {
	Refresh []string `json:"refresh"`
}
