package cli

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/hupe1980/taskmesh"
	"github.com/hupe1980/taskmesh/console"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/config"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	anthropicmodel "github.com/hupe1980/taskmesh/model/anthropic"
	openaimodel "github.com/hupe1980/taskmesh/model/openai"
	"github.com/hupe1980/taskmesh/storage"
	"github.com/hupe1980/taskmesh/storage/sqlite"
)

// session is a started TaskMesh plus the resources backing it.
type session struct {
	cfg    *config.Config
	mesh   *taskmesh.TaskMesh
	logger logging.Logger
	userID string
	close  func() error
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.backend != "" {
		cfg.Storage.Backend = flags.backend
	}
	if flags.dbPath != "" {
		cfg.Storage.Path = flags.dbPath
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSession(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.NewLogger()

	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	llm, err := newModel(cfg.Model)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	mesh := taskmesh.New(func(o *taskmesh.Options) {
		o.Store = store
		o.Presenter = console.New(cmd.InOrStdin(), cmd.OutOrStdout())
		o.Model = llm
		o.MaxChatIterations = cfg.Model.MaxIterations
		o.Version = version
		o.Logger = logger
	})
	mesh.Start(cmd.Context())

	logger.Debug("session opened", "backend", cfg.Storage.Backend, "chat", mesh.ChatEnabled())

	return &session{cfg: cfg, mesh: mesh, logger: logger, userID: flags.userID, close: closeStore}, nil
}

// Close stops the agents and releases the store.
func (s *session) Close(ctx context.Context) error {
	s.mesh.Stop(ctx)
	return s.close()
}

// send routes action and turns error responses into errors.
func (s *session) send(ctx context.Context, action string, payload core.Payload) (map[string]any, error) {
	resp, err := s.mesh.Send(ctx, action, payload)
	if err != nil {
		return nil, err
	}
	if err := core.ResponseError(resp); err != nil {
		return nil, err
	}
	result, _ := resp.ResultMap()
	if result == nil {
		result = map[string]any{}
	}
	return result, nil
}

// scoped adds the --user id to payload when set.
func (s *session) scoped(payload core.Payload) core.Payload {
	if s.userID != "" {
		payload["user_id"] = s.userID
	}
	return payload
}

func openStore(cfg config.StorageConfig) (core.TaskStore, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewInMemoryStore(), func() error { return nil }, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newModel returns nil when no provider is configured.
func newModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderScripted:
		name := cfg.Name
		if name == "" {
			name = "scripted"
		}
		return model.NewScriptedModel(name), nil
	case config.ProviderOpenAI:
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = cfg.Name
			o.APIKey = cfg.APIKey
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(cfg.MaxTokens)
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(cfg.Name)
			o.APIKey = cfg.APIKey
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.MaxTokens)
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
