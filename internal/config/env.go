package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/kazz187/taskforge/pkg/clog"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey   string `envconfig:"API_KEY" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".taskforge/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"taskforge/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	// SQLite settings (used when Type == "sqlite")
	SQLitePath string `envconfig:"SQLITE_PATH" default:".taskforge/taskforge.db"`
}

type WorkflowEnv struct {
	InvocationTimeout time.Duration `envconfig:"INVOCATION_TIMEOUT" default:"5m"`
	AgentMaxLoad      int           `envconfig:"AGENT_MAX_LOAD" default:"5"`
}

type InvokerEnv struct {
	Invoker        string `envconfig:"INVOKER" default:"claude"`
	ClaudeWorkDir  string `envconfig:"CLAUDE_WORK_DIR" default:"."`
	ClaudeMaxTurns int    `envconfig:"CLAUDE_MAX_TURNS" default:"1"`
	OllamaModel    string `envconfig:"OLLAMA_MODEL" default:"llama3.1"`
}

type RosterEnv struct {
	Path  string `envconfig:"AGENT_ROSTER_PATH"`
	Watch bool   `envconfig:"AGENT_ROSTER_WATCH" default:"false"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:admin@example.com"`
}

// Configured reports whether both VAPID keys are set.
func (v *VAPIDEnv) Configured() bool {
	return v != nil && v.VAPIDPublicKey != "" && v.VAPIDPrivateKey != ""
}

type Env struct {
	BaseEnv
	StorageEnv
	WorkflowEnv
	InvokerEnv
	RosterEnv
	VAPIDEnv
}

const namespace = "TASKFORGE"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Env) validate() error {
	switch e.StorageEnv.Type {
	case "local", "sqlite":
	case "s3":
		if e.S3Bucket == "" {
			return fmt.Errorf("TASKFORGE_S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", e.StorageEnv.Type)
	}
	switch e.Invoker {
	case "claude", "ollama":
	default:
		return fmt.Errorf("unknown invoker %q", e.Invoker)
	}
	if e.InvocationTimeout < 0 {
		return fmt.Errorf("TASKFORGE_INVOCATION_TIMEOUT must not be negative")
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	return clog.ParseLevel(e.LogLevel)
}

func (e *BaseEnv) IsLocal() bool {
	return e.Env == "local"
}

func (e *BaseEnv) Addr() string {
	return e.HTTPHost + ":" + e.HTTPPort
}
