package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/avasquez/festa-agent/internal/adapters/http"
	"github.com/avasquez/festa-agent/internal/adapters/llm"
	filestore "github.com/avasquez/festa-agent/internal/adapters/storage/file"
	firestorestore "github.com/avasquez/festa-agent/internal/adapters/storage/firestore"
	memstore "github.com/avasquez/festa-agent/internal/adapters/storage/memory"
	"github.com/avasquez/festa-agent/internal/adapters/voice"
	"github.com/avasquez/festa-agent/internal/app/executor"
	"github.com/avasquez/festa-agent/internal/app/gather"
	"github.com/avasquez/festa-agent/internal/app/intent"
	"github.com/avasquez/festa-agent/internal/app/plan"
	"github.com/avasquez/festa-agent/internal/app/search"
	"github.com/avasquez/festa-agent/internal/app/session"
	"github.com/avasquez/festa-agent/internal/config"
	"github.com/avasquez/festa-agent/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// LLM: mock or Vertex by config (useful for dev)
	var (
		llmClient domain.LLMClient
		err       error
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using MOCK LLM client")
		llmClient = llm.NewMockClient()
	} else {
		log.Println("[LLM] Using Vertex LLM client")
		llmClient, err = llm.NewGenaiClient(ctx)
		if err != nil {
			log.Fatalf("error initializing Vertex LLM client: %v", err)
		}
	}

	// Voice: mock or real provider
	var calls domain.CallProvider
	if cfg.UseMockVoice {
		log.Println("[VOICE] Using MOCK call provider")
		calls = voice.NewMockProvider()
	} else {
		log.Println("[VOICE] Using outbound call provider")
		calls, err = voice.NewProvider(voice.Options{
			APIKey:       cfg.VoiceAPIKey,
			AgentID:      cfg.VoiceAgentID,
			AgentPhoneID: cfg.VoiceAgentPhoneID,
			PollInterval: cfg.PollInterval,
		})
		if err != nil {
			log.Fatalf("error initializing call provider: %v", err)
		}
	}

	// Storage: Firestore, file or memory
	var (
		conversations domain.ConversationStore
		plans         domain.PlanStore
		tasks         domain.TaskStore
	)
	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		// 1 store, implements 3 interfaces
		conversations = fsStore
		plans = fsStore
		tasks = fsStore

	case "memory":
		log.Println("[STORE] Using in-memory storage")
		conversations = memstore.NewConversationStore()
		plans = memstore.NewPlanStore()
		tasks = memstore.NewTaskStore()

	default:
		log.Printf("[STORE] Using file storage (path=%s)", cfg.StoragePath)
		fStore, err := filestore.NewStore(cfg.StoragePath)
		if err != nil {
			log.Fatalf("error initializing file store: %v", err)
		}
		conversations = fStore
		plans = fStore
		tasks = fStore
	}

	// Application services
	intents := intent.NewClassifier(intent.Default())
	gatherer := gather.NewService(llmClient)
	machine := plan.NewMachine(llmClient, gatherer, intents)
	searcher := search.NewService(llmClient, cfg.CandidateCount)
	evaluator := executor.NewEvaluator(llmClient)
	engine := executor.NewEngine(calls, evaluator, executor.Options{
		CallTimeout:  cfg.CallTimeout,
		RetryPause:   cfg.RetryPause,
		SandboxPhone: cfg.SandboxPhone,
	})

	orc := session.NewOrchestrator(llmClient, conversations, plans, tasks, machine, searcher, engine, intents)

	// HTTP server
	handler := httpadapter.NewServer(orc)

	addr := ":" + cfg.Port
	log.Println("Festa API listening on port:", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
