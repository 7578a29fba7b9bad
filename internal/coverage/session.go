package coverage

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Session is an active measurement. It must be closed on every exit path;
// Close is idempotent so it can be both deferred and called explicitly.
type Session struct {
	engine Engine
	log    zerolog.Logger
	once   sync.Once
	err    error
}

// Acquire starts measurement with engine
func Acquire(ctx context.Context, engine Engine, log zerolog.Logger) (*Session, error) {
	if err := engine.Start(ctx); err != nil {
		return nil, err
	}
	log.Debug().Msg("coverage measurement started")
	return &Session{engine: engine, log: log}, nil
}

// Engine returns the underlying engine
func (s *Session) Engine() Engine {
	return s.engine
}

// Environ returns the variables measured processes need
func (s *Session) Environ() []string {
	return s.engine.Environ()
}

// Close stops measurement, combines and saves the data. Later calls return
// the first call's result.
func (s *Session) Close(ctx context.Context) error {
	s.once.Do(func() {
		s.err = errors.Join(
			s.engine.Stop(ctx),
			s.engine.Combine(ctx),
		)
		if s.err == nil {
			s.err = s.engine.Save(ctx)
		}
		s.log.Debug().Err(s.err).Msg("coverage measurement finished")
	})
	return s.err
}
