package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/hawlion/ai-planner/internal/config"
	"github.com/hawlion/ai-planner/internal/db"
	"github.com/hawlion/ai-planner/internal/executor"
	"github.com/hawlion/ai-planner/internal/httpapi"
	"github.com/hawlion/ai-planner/internal/llm"
	"github.com/hawlion/ai-planner/internal/metrics"
	"github.com/hawlion/ai-planner/internal/obslog"
	"github.com/hawlion/ai-planner/internal/repository"
	"github.com/hawlion/ai-planner/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger, err := obslog.New(obslog.Config{Verbose: cfg.LogLevel == "debug"})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	taskRepo := repository.NewSQLiteTaskRepo(database)
	blockRepo := repository.NewSQLiteCalendarBlockRepo(database)
	approvalRepo := repository.NewSQLiteApprovalRequestRepo(database)
	candidateRepo := repository.NewSQLiteActionItemCandidateRepo(database)
	meetingRepo := repository.NewSQLiteMeetingRepo(database)
	profileRepo := repository.NewSQLiteProfileRepo(database)
	proposalRepo := repository.NewSQLiteSchedulingProposalRepo(database)
	syncRepo := repository.NewSQLiteSyncStatusRepo(database)
	auditRepo := repository.NewSQLiteAuditRepo(database)

	metricsRecorder := metrics.New()

	var llmClient llm.LLMClient
	llmCfg := llm.LoadConfig()
	if llmCfg.Enabled {
		var observer llm.Observer = llm.NoopObserver{}
		if llmCfg.LogCalls {
			observer = llm.NewZapObserver(logger, metricsRecorder)
		}
		llmClient = llm.NewOllamaClient(llmCfg, observer)
	}

	// No GraphClient implementation exists yet to back calendarmirror.Mirror,
	// so the executor and HTTP server run with mirroring disabled until one
	// is wired.
	exec := &executor.Executor{
		Tasks:      taskRepo,
		Blocks:     blockRepo,
		Proposals:  proposalRepo,
		Approvals:  approvalRepo,
		Meetings:   meetingRepo,
		Candidates: candidateRepo,
		Audit:      auditRepo,
		Profiles:   profileRepo,
		Metrics:    metricsRecorder,
	}

	var useCaseObserver service.UseCaseObserver = service.NoopUseCaseObserver{}
	if cfg.LogUseCases {
		useCaseObserver = service.NewLogUseCaseObserver(os.Stderr)
	}

	chatService := service.NewChatService(taskRepo, blockRepo, approvalRepo, candidateRepo, proposalRepo, profileRepo, exec, llmClient, useCaseObserver)

	server := httpapi.NewServer(&httpapi.Server{
		Tasks:      taskRepo,
		Blocks:     blockRepo,
		Meetings:   meetingRepo,
		Candidates: candidateRepo,
		Approvals:  approvalRepo,
		Proposals:  proposalRepo,
		Sync:       syncRepo,
		Profiles:   profileRepo,
		Audit:      auditRepo,
		Executor:   exec,
		Chat:       chatService,
		Metrics:    metricsRecorder,
		LLM:        llmClient,
		Timezone:   cfg.Timezone,
	})

	logger.Sugar().Infow("starting aawo http server", "addr", cfg.HTTPAddr, "db", cfg.DBPath)
	return http.ListenAndServe(cfg.HTTPAddr, server.Routes())
}
