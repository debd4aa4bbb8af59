package backend

import (
	"context"
	"fmt"
	"time"

	"spendtrack/internal/log"
	"spendtrack/internal/sheets"
	"spendtrack/internal/sheets/google"
	"spendtrack/internal/sheets/local"
	"spendtrack/internal/sheets/memory"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *log.Logger) *DefaultFactory {
	return &DefaultFactory{logger: log.OrDefault(logger, log.ComponentBackend)}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case DriveBackend:
		return f.createDriveBackend(ctx, config)
	case LocalBackend:
		return f.createLocalBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createDriveBackend chains Drive with the local directory. When Drive
// cannot supply a workbook, a file of the same name that the user placed
// in DataDirectory is read instead. Drive reads are never written there.
func (f *DefaultFactory) createDriveBackend(ctx context.Context, config Config) (*Result, error) {
	drive, err := google.New(ctx, google.Config{
		Credentials:   config.Credentials,
		PublicBaseURL: config.PublicBaseURL,
		Timeout:       config.Timeout,
	}, f.logger.WithComponent(log.ComponentDrive))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Drive reader: %w", err)
	}

	readers := []sheets.Reader{drive}
	if config.DataDirectory != "" {
		readers = append(readers, local.New(config.DataDirectory))
	}
	chain := sheets.NewChain(f.logger.WithComponent(log.ComponentSheets), readers...)

	f.logger.Info("Initialized Drive backend",
		"api", drive.HasAPI(),
		log.FieldSource, chain.Name())

	return &Result{Reader: chain}, nil
}

func (f *DefaultFactory) createLocalBackend(config Config) (*Result, error) {
	f.logger.Info("Initialized local backend", "data_directory", config.DataDirectory)
	return &Result{Reader: local.New(config.DataDirectory)}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	now := time.Now
	if config.Now != nil {
		now = config.Now
	}
	f.logger.Info("Initialized memory backend with demo data")
	return &Result{Reader: memory.NewSample(now())}, nil
}
