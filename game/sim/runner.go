package sim

import (
	"sync"
	"time"

	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/consts"
	"github.com/emberwild/emberwild/engine/crontab"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/gwutils"
	"github.com/emberwild/emberwild/engine/gwvar"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	timer "github.com/xiaonanln/goTimer"
)

const (
	rsNotRunning = iota
	rsRunning
	rsTerminating
	rsTerminated
)

type eventKind int

const (
	evConnect eventKind = iota
	evMessage
	evClose
)

// event is one item of the inbound queue, produced by connection goroutines
type event struct {
	kind   eventKind
	alias  common.ClientID
	conn   Conn
	params ConnectParams
	data   []byte
}

// RunnerConfig holds the periodic jobs of a Runner
type RunnerConfig struct {
	TickInterval time.Duration
	SaveInterval time.Duration
	// ZoneRegenMinutes is the period of idle zone regeneration; 0 disables it
	ZoneRegenMinutes int
}

// Runner owns the simulation goroutine; every Engine call happens on it
type Runner struct {
	engine   *Engine
	cfg      RunnerConfig
	inbound  chan event
	runState xnsyncutil.AtomicInt
	stop     chan struct{}
	stopOnce sync.Once
	done     *xnsyncutil.OneTimeCond
	cron     *crontab.Table
}

// NewRunner wraps engine with its inbound queue
func NewRunner(engine *Engine, cfg RunnerConfig) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = consts.SIM_TICK_INTERVAL
	}
	if cfg.SaveInterval <= 0 {
		cfg.SaveInterval = consts.SIM_SAVE_INTERVAL
	}
	return &Runner{
		engine:  engine,
		cfg:     cfg,
		inbound: make(chan event, consts.SIM_INBOUND_QUEUE_SIZE),
		stop:    make(chan struct{}),
		done:    xnsyncutil.NewOneTimeCond(),
		cron:    crontab.NewTable(),
	}
}

// Connected queues a new connection
func (r *Runner) Connected(alias common.ClientID, conn Conn, params ConnectParams) {
	r.push(event{kind: evConnect, alias: alias, conn: conn, params: params})
}

// Message queues one raw client message
func (r *Runner) Message(alias common.ClientID, data []byte) {
	r.push(event{kind: evMessage, alias: alias, data: data})
}

// Closed queues the end of a connection
func (r *Runner) Closed(alias common.ClientID) {
	r.push(event{kind: evClose, alias: alias})
}

// push queues ev for the loop; once stopping, new connections are closed and other events dropped
func (r *Runner) push(ev event) {
	if r.runState.Load() < rsTerminating {
		select {
		case r.inbound <- ev:
			return
		case <-r.stop:
		}
	}
	if ev.kind == evConnect {
		ev.conn.Close(nil)
	}
}

// Run is the simulation loop; it returns after Stop once the engine has been shut down
func (r *Runner) Run() {
	r.runState.Store(rsRunning)
	gwvar.IsServing.Set(true)
	defer r.done.Signal()

	timer.AddTimer(r.cfg.SaveInterval, func() {
		r.engine.SaveDirty()
	})
	if n := r.cfg.ZoneRegenMinutes; n > 0 {
		r.cron.Register(-n, -1, -1, -1, -1, r.engine.RegenerateIdleZones)
		r.cron.Start()
	}
	gwlog.Infof("Simulation running: tick=%s save=%s zone_regen=%dm", r.cfg.TickInterval, r.cfg.SaveInterval, r.cfg.ZoneRegenMinutes)

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case ev := <-r.inbound:
			r.dispatch(ev)
		case now := <-ticker.C:
			r.engine.Tick(now)
			gwvar.Ticks.Add(1)
			gwvar.OnlinePlayers.Set(int64(r.engine.PlayerCount()))
			timer.Tick()
		case <-r.stop:
			r.drain()
			r.cron.Stop()
			gwvar.IsServing.Set(false)
			n := r.engine.Shutdown()
			gwlog.Infof("Simulation stopped, %d profiles queued for saving", n)
			r.runState.Store(rsTerminated)
			return
		}
		r.engine.post.Tick()
	}
}

func (r *Runner) dispatch(ev event) {
	gwutils.RunPanicless(func() {
		switch ev.kind {
		case evConnect:
			gwvar.Connections.Add(1)
			r.engine.Connect(ev.alias, ev.conn, ev.params)
		case evMessage:
			r.engine.HandleMessage(ev.alias, ev.data)
		case evClose:
			gwvar.Connections.Add(-1)
			r.engine.Disconnect(ev.alias)
		}
	}, "client %s: event %d", ev.alias, ev.kind)
}

// drain handles what is already queued so that no close event is lost
func (r *Runner) drain() {
	for {
		select {
		case ev := <-r.inbound:
			r.dispatch(ev)
		default:
			return
		}
	}
}

// Stop asks the loop to shut the engine down and waits for it; Run must have been started
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.runState.Store(rsTerminating)
		close(r.stop)
	})
	r.done.Wait()
}
