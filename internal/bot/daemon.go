package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/avelar/vidvault/internal/flow"
	"github.com/avelar/vidvault/internal/session"
)

// Daemon is the main bot process. It connects one or more chat platform
// adapters, pumps inbound messages through the conversation engine, and
// delivers the resulting actions back to the originating platform.
type Daemon struct {
	engine   *flow.Engine
	sessions *session.Store
	adapters []Adapter
	sweep    time.Duration
	out      io.Writer

	routeMu sync.RWMutex
	routes  map[string]route // userID -> last seen platform location
}

type route struct {
	adapter   Adapter
	channelID string
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	Engine        *flow.Engine
	Sessions      *session.Store
	Adapters      []Adapter
	SweepInterval time.Duration // session expiry sweep cadence
	Out           io.Writer     // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("bot: engine is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("bot: session store is required")
	}
	if len(opts.Adapters) == 0 {
		return nil, fmt.Errorf("bot: at least one adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	sweep := opts.SweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}
	return &Daemon{
		engine:   opts.Engine,
		sessions: opts.Sessions,
		adapters: opts.Adapters,
		sweep:    sweep,
		out:      out,
		routes:   make(map[string]route),
	}, nil
}

// Run starts the daemon. It connects every adapter, merges their
// inbound streams into the dispatcher, and blocks until the context is
// cancelled. On shutdown it drains in-flight turns and closes the
// adapters.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Vidvault connecting...\n")

	botIDs := make(map[string]bool)
	for _, a := range d.adapters {
		if err := a.Connect(ctx); err != nil {
			d.closeAll()
			return fmt.Errorf("bot: connect: %w", err)
		}
		if bui, ok := a.(BotUserIDer); ok && bui.BotUserID() != "" {
			botIDs[bui.BotUserID()] = true
		}
	}

	merged := make(chan tagged)
	var listeners sync.WaitGroup
	for _, a := range d.adapters {
		inbound, err := a.Listen(ctx)
		if err != nil {
			d.closeAll()
			return fmt.Errorf("bot: listen: %w", err)
		}
		listeners.Add(1)
		go func(a Adapter, ch <-chan Inbound) {
			defer listeners.Done()
			for msg := range ch {
				merged <- tagged{adapter: a, msg: msg}
			}
		}(a, inbound)
	}
	go func() {
		listeners.Wait()
		close(merged)
	}()

	dispatcher := NewDispatcher(d.engine.Handle, d.deliver)

	sweepTicker := time.NewTicker(d.sweep)
	defer sweepTicker.Stop()

	fmt.Fprintf(d.out, "Vidvault online\n")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Vidvault shutting down...\n")
			d.closeAll()
			// Closing the adapters ends their inbound streams; drain
			// what the listeners already queued so they can exit
			// instead of leaking blocked on merged.
			for range merged {
			}
			dispatcher.Wait()
			fmt.Fprintf(d.out, "Vidvault stopped\n")
			return nil

		case <-sweepTicker.C:
			if n := d.sessions.ExpireIdle(time.Now()); n > 0 {
				fmt.Fprintf(d.out, "bot: expired %d idle flows\n", n)
			}

		case in, ok := <-merged:
			if !ok {
				fmt.Fprintf(d.out, "Vidvault inbound channels closed\n")
				dispatcher.Wait()
				return nil
			}
			if botIDs[in.msg.UserID] {
				continue // self-message
			}
			d.rememberRoute(in.msg.UserID, in.adapter, in.msg.ChannelID)
			dispatcher.Dispatch(ctx, in.msg)
		}
	}
}

type tagged struct {
	adapter Adapter
	msg     Inbound
}

// deliver sends a turn's actions back via the platform the user spoke
// on.
func (d *Daemon) deliver(ctx context.Context, src Inbound, actions []flow.Action) {
	r, ok := d.lookupRoute(src.UserID)
	if !ok {
		log.Printf("bot: no route for user %s; dropping %d actions", src.UserID, len(actions))
		return
	}
	for _, a := range actions {
		out := Outbound{
			ChannelID: r.channelID,
			UserID:    a.UserID,
			Text:      a.Text,
			MediaRef:  a.MediaRef,
		}
		if err := r.adapter.Send(ctx, out); err != nil {
			log.Printf("bot: send to %s: %v", a.UserID, err)
		}
	}
}

// SendToUser delivers a message to a user over the platform they were
// last seen on. Users never seen this process lifetime are unreachable
// and report an error.
func (d *Daemon) SendToUser(ctx context.Context, userID, text, mediaRef string) error {
	r, ok := d.lookupRoute(userID)
	if !ok {
		return fmt.Errorf("bot: no route for user %s", userID)
	}
	return r.adapter.Send(ctx, Outbound{
		ChannelID: r.channelID,
		UserID:    userID,
		Text:      text,
		MediaRef:  mediaRef,
	})
}

func (d *Daemon) rememberRoute(userID string, a Adapter, channelID string) {
	if userID == "" {
		return
	}
	d.routeMu.Lock()
	d.routes[userID] = route{adapter: a, channelID: channelID}
	d.routeMu.Unlock()
}

func (d *Daemon) lookupRoute(userID string) (route, bool) {
	d.routeMu.RLock()
	r, ok := d.routes[userID]
	d.routeMu.RUnlock()
	return r, ok
}

func (d *Daemon) closeAll() {
	for _, a := range d.adapters {
		if err := a.Close(); err != nil {
			log.Printf("bot: close adapter: %v", err)
		}
	}
}
