package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// scheduleParser accepts 5- or 6-field cron specs and descriptors such as
// "@every 1m" or "@hourly".
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule validates a refresh schedule.
func ParseSchedule(spec string) error {
	if _, err := scheduleParser.Parse(spec); err != nil {
		return fmt.Errorf("%w: schedule %q: %v", types.ErrInvalidArgument, spec, err)
	}
	return nil
}

// Every runs fn on the cron schedule spec until ctx is done. A run still in
// progress when the next tick fires causes that tick to be skipped.
func Every(ctx context.Context, spec string, log *slog.Logger, fn func(context.Context) error) error {
	if log == nil {
		log = slog.Default()
	}
	cl := cronLogger{log}
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(spec, func() {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			log.Error("scheduled refresh", slog.Any("err", err))
		}
	}); err != nil {
		return fmt.Errorf("%w: schedule %q: %v", types.ErrInvalidArgument, spec, err)
	}
	c.Start()
	log.Debug("scheduler started", slog.String("spec", spec))
	<-ctx.Done()
	<-c.Stop().Done()
	log.Debug("scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron "+msg, append([]any{slog.Any("err", err)}, keysAndValues...)...)
}
