package bootstrap

import (
	"go.uber.org/zap"

	"github.com/nubank/doc-ia/internal/attachment"
	"github.com/nubank/doc-ia/internal/config"
	"github.com/nubank/doc-ia/internal/logging"
	"github.com/nubank/doc-ia/internal/provider"
	"github.com/nubank/doc-ia/internal/speech"
	"github.com/nubank/doc-ia/internal/turn"
)

// Services is the assembled runtime graph shared by both front-ends.
type Services struct {
	Controller *turn.Controller
	Model      string
	Config     config.Config
	Logger     *zap.Logger
}

// Build wires every dependency from configuration. Only front-ends that play
// audio themselves should pass speak=true; the web page speaks in the browser.
func Build(speak bool, configPaths ...string) (Services, error) {
	cfg, err := config.Load(configPaths...)
	if err != nil {
		return Services{}, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return Services{}, err
	}

	backend, err := provider.FromConfig(cfg, logger)
	if err != nil {
		return Services{}, err
	}

	client := provider.NewGenerationClient(backend, provider.Fallbacks{
		NoResponse: cfg.Fallback.NoResponse,
		Connection: cfg.Fallback.Connection,
	}, logger)

	var speaker speech.Speaker = speech.Nop{}
	if speak {
		speaker = speech.NewCommandSpeaker(cfg.Speech.Command)
	}

	controller := turn.NewController(
		client,
		attachment.NewNormalizer(cfg.Attachment.ExcerptLimit, logger),
		speaker,
		turn.Config{Persona: cfg.Persona, NothingReceived: cfg.NothingReceived},
		logger,
	)

	return Services{Controller: controller, Model: client.Model(), Config: cfg, Logger: logger}, nil
}
