package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	StorageBackend string // "memory", "file" or "firestore"
	StoragePath    string // base dir for the file backend
	UseMockLLM     bool   // true = use mock even on GCP
	UseMockVoice   bool   // true = never place real calls

	// Voice provider credentials.
	VoiceAPIKey       string
	VoiceAgentID      string
	VoiceAgentPhoneID string

	// Execution engine timing.
	CallTimeout  time.Duration // max wait for one call to finish
	PollInterval time.Duration // status check cadence while waiting
	RetryPause   time.Duration // pause between fallback candidates

	// CandidateCount is how many places each search asks for.
	CandidateCount int

	// SandboxPhone, when set, replaces every candidate's phone number
	// during execution. Used to route all calls to a test line.
	SandboxPhone string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Load reads all env vars and builds the config
func Load() *Config {
	modeStr := getEnv("FESTA_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("FESTA_PORT", "8080"),

		GCPProjectID: getEnv("FESTA_GCP_PROJECT", ""),
		GCPLocation:  getEnv("FESTA_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("FESTA_MODEL_NAME", "gemini-2.5-flash"),

		StorageBackend: getEnv("FESTA_STORAGE_BACKEND", "file"),
		StoragePath:    getEnv("FESTA_STORAGE_PATH", "database"),
		UseMockLLM:     getBoolEnv("FESTA_USE_MOCK_LLM", mode == ModeLocal),
		UseMockVoice:   getBoolEnv("FESTA_USE_MOCK_VOICE", mode == ModeLocal),

		VoiceAPIKey:       getEnv("FESTA_VOICE_API_KEY", ""),
		VoiceAgentID:      getEnv("FESTA_VOICE_AGENT_ID", ""),
		VoiceAgentPhoneID: getEnv("FESTA_VOICE_AGENT_PHONE_ID", ""),

		CallTimeout:  getDurationEnv("FESTA_CALL_TIMEOUT", 4*time.Minute),
		PollInterval: getDurationEnv("FESTA_POLL_INTERVAL", 3*time.Second),
		RetryPause:   getDurationEnv("FESTA_RETRY_PAUSE", 5*time.Second),

		CandidateCount: getIntEnv("FESTA_CANDIDATE_COUNT", 3),

		SandboxPhone: getEnv("FESTA_SANDBOX_PHONE", ""),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("FESTA_GCP_PROJECT must be set in gcp mode")
	}
	if !cfg.UseMockVoice && cfg.VoiceAPIKey == "" {
		log.Fatal("FESTA_VOICE_API_KEY must be set when real calls are enabled")
	}

	return cfg
}
