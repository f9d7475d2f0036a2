// Package keeper wires the note services around one storage gateway.
package keeper

import (
	"log/slog"
	"time"

	"github.com/starford/notekeeper/internal/lifecycle"
	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/password"
	"github.com/starford/notekeeper/internal/render"
	"github.com/starford/notekeeper/internal/search"
	"github.com/starford/notekeeper/internal/settings"
	"github.com/starford/notekeeper/internal/share"
	"github.com/starford/notekeeper/internal/storage"
	"github.com/starford/notekeeper/internal/tags"
)

// Services is the object graph used by every front end.
type Services struct {
	Notes     *lifecycle.Manager
	Settings  *settings.Store
	Passwords *password.Service
	Gate      *lockgate.Gate
	Search    *search.Engine
	Tags      *tags.Associator
	Share     *share.Sharer
	Printer   render.Printer
	Location  *time.Location
}

type options struct {
	cost     int
	atomic   bool
	loc      *time.Location
	sender   share.Sender
	smsTo    string
	notifier lifecycle.Notifier
	observer lockgate.Observer
	logger   *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithBcryptCost sets the password hashing work factor.
func WithBcryptCost(cost int) Option {
	return func(o *options) { o.cost = cost }
}

// WithAtomicMoves runs trash moves in a transaction when the gateway allows it.
func WithAtomicMoves(on bool) Option {
	return func(o *options) { o.atomic = on }
}

// WithLocation sets the time zone for date search and rendering.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// WithSender enables sharing to the destination number to.
func WithSender(s share.Sender, to string) Option {
	return func(o *options) {
		o.sender = s
		o.smsTo = to
	}
}

// WithNotifier receives lifecycle events.
func WithNotifier(n lifecycle.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithGateObserver receives lock gate transitions.
func WithGateObserver(obs lockgate.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the logger shared by all services.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds the services on top of gw.
func New(gw storage.Gateway, opts ...Option) *Services {
	o := options{cost: password.DefaultCost, loc: time.Local, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	lcOpts := []lifecycle.Option{lifecycle.WithAtomicMoves(o.atomic), lifecycle.WithLogger(o.logger)}
	if o.notifier != nil {
		lcOpts = append(lcOpts, lifecycle.WithNotifier(o.notifier))
	}
	notes := lifecycle.New(gw, lcOpts...)
	st := settings.NewStore(gw)
	pw := password.NewService(notes, st, password.WithCost(o.cost), password.WithLogger(o.logger))

	gateOpts := []lockgate.Option{lockgate.WithLogger(o.logger)}
	if o.observer != nil {
		gateOpts = append(gateOpts, lockgate.WithObserver(o.observer))
	}
	gate := lockgate.New(pw, gateOpts...)

	return &Services{
		Notes:     notes,
		Settings:  st,
		Passwords: pw,
		Gate:      gate,
		Search:    search.NewEngine(notes, st, gate, search.WithLocation(o.loc), search.WithLogger(o.logger)),
		Tags:      tags.NewAssociator(gw, notes, gate, o.logger),
		Share:     share.NewSharer(notes, gate, o.sender, o.smsTo, o.loc, o.logger),
		Printer:   render.Printer{Loc: o.loc},
		Location:  o.loc,
	}
}
