// Package alarm exposes a settable alarm and rings it daily on a cron schedule.
package alarm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/soyeahso/assistant/internal/hooks"
	"github.com/soyeahso/assistant/internal/logging"
	"github.com/soyeahso/assistant/internal/plugin"
	"github.com/soyeahso/assistant/internal/tool"
)

// DefaultTime is the alarm used when none is configured.
const DefaultTime = "11"

var clockLayouts = []string{"15:04", "15", "3:04PM", "3:04 PM", "3PM", "3 PM"}

// ParseClock reads a time of day such as "07:30", "7", "7:30 PM" or "7pm".
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}

// Plugin holds the alarm time. When ring is enabled and the time parses as a
// clock time, an alarm_ring hook fires every day at that time.
type Plugin struct {
	mu      sync.Mutex
	time    string
	ring    bool
	cron    *cron.Cron
	entry   cron.EntryID
	started bool
	hooks   *hooks.Manager
	log     *logging.Logger
}

// New creates the alarm plugin.
func New(initial string, ring bool) *Plugin {
	if strings.TrimSpace(initial) == "" {
		initial = DefaultTime
	}
	return &Plugin{
		time: initial,
		ring: ring,
		cron: cron.New(),
		log:  logging.Nop(),
	}
}

func (p *Plugin) ID() string          { return "alarm" }
func (p *Plugin) Name() string        { return "Alarm" }
func (p *Plugin) Description() string { return "Represents a controllable alarm" }

func (p *Plugin) Init(_ context.Context, api plugin.API) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hooks = api.Hooks
	if api.Log != nil {
		p.log = api.Log
	}
	if p.ring {
		p.cron.Start()
		p.started = true
		p.scheduleLocked()
	}
	return nil
}

func (p *Plugin) Close() error {
	p.mu.Lock()
	started := p.started
	p.started = false
	p.mu.Unlock()

	if started {
		<-p.cron.Stop().Done()
	}
	return nil
}

func (p *Plugin) Tools() []tool.Tool {
	return []tool.Tool{
		tool.Define("set_alarm", "Sets an alarm at the provided time").
			Required("time", tool.String, "Time of day for the alarm, e.g. 07:30").
			Returns("confirmation of the alarm now set").
			Handle(func(_ context.Context, args tool.Arguments) (any, error) {
				return p.Set(args.String("time")), nil
			}),
		tool.Define("get_current_alarm", "Get current alarm set").
			Returns("the alarm currently set").
			Handle(func(context.Context, tool.Arguments) (any, error) {
				return p.Current(), nil
			}),
	}
}

// Set replaces the alarm time and reschedules the ring.
func (p *Plugin) Set(t string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.time = strings.TrimSpace(t)
	if p.started {
		p.scheduleLocked()
	}
	return p.currentLocked()
}

// Current describes the alarm.
func (p *Plugin) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

// Next returns when the alarm rings next, if it is scheduled.
func (p *Plugin) Next() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.entry == 0 {
		return time.Time{}, false
	}
	e := p.cron.Entry(p.entry)
	if !e.Valid() {
		return time.Time{}, false
	}
	return e.Schedule.Next(time.Now()), true
}

func (p *Plugin) currentLocked() string {
	return fmt.Sprintf("Alarm set for %s", p.time)
}

func (p *Plugin) scheduleLocked() {
	if p.entry != 0 {
		p.cron.Remove(p.entry)
		p.entry = 0
	}
	hour, minute, ok := ParseClock(p.time)
	if !ok {
		p.log.Debug().Str("time", p.time).Msg("alarm time is not a clock time, not scheduling")
		return
	}
	id, err := p.cron.AddFunc(fmt.Sprintf("%d %d * * *", minute, hour), p.fire)
	if err != nil {
		p.log.Warn().Err(err).Str("time", p.time).Msg("scheduling alarm")
		return
	}
	p.entry = id
	p.log.Info().Str("time", p.time).Msg("alarm scheduled")
}

func (p *Plugin) fire() {
	p.mu.Lock()
	t, hm := p.time, p.hooks
	p.mu.Unlock()

	p.log.Info().Str("time", t).Msg("alarm ringing")
	if hm != nil {
		hm.Emit(context.Background(), hooks.EventAlarmRing, map[string]any{hooks.KeyTime: t})
	}
}
