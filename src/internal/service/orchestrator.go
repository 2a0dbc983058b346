package service

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"b24serve/src/internal/api"
	"b24serve/src/internal/domain"
	"b24serve/src/internal/service/hook"
	"b24serve/src/internal/service/reload"
	"b24serve/src/internal/service/watcher"
)

type Orchestrator struct {
	ctx *domain.Context
	out io.Writer
}

func CreateOrchestrator(ctx *domain.Context, out io.Writer) *Orchestrator {
	return &Orchestrator{
		ctx: ctx,
		out: out,
	}
}

// Run serves until SIGINT/SIGTERM.
func (o *Orchestrator) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return o.RunContext(ctx)
}

// RunContext serves until ctx is done or the listener fails.
func (o *Orchestrator) RunContext(ctx context.Context) error {
	cfg := o.ctx.Config
	log.Debugf("Starting b24serve (Version: %s) in %s", cfg.Version, cfg.Root)

	var hub *reload.Hub
	if cfg.LiveReload {
		hub = reload.NewHub()
		defer hub.Close()
	}

	server := api.Create(o.ctx, hub)
	ln, err := server.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	fmt.Fprintf(o.out, "Server started: %s\n", cfg.PublicURL())
	fmt.Fprintln(o.out, "Press Ctrl+C to stop")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	if err := o.startWatch(ctx, hub); err != nil {
		log.Warnf("File watching disabled: %v", err)
	}

	select {
	case <-ctx.Done():
		log.Debugf("Shutting down: %v", context.Cause(ctx))
		return nil
	case err := <-serveErr:
		return err
	}
}

func (o *Orchestrator) startWatch(ctx context.Context, hub *reload.Hub) error {
	cfg := o.ctx.Config
	if hub == nil && cfg.OnChange == "" {
		return nil
	}

	w, err := watcher.New(cfg.Root, domain.WatchDebounce)
	if err != nil {
		return err
	}

	h := hook.New(cfg.OnChange, cfg.Root, o.out)
	if cfg.OnChange != "" {
		h.Trigger(ctx, "startup")
	}

	go func() {
		err := w.Run(ctx, func(path string) {
			log.Debugf("Changed: %s", path)
			if cfg.OnChange != "" {
				h.TriggerIdle(ctx, path, 2*domain.WatchDebounce)
			}
			if hub != nil {
				n := hub.Broadcast(path)
				log.Debugf("Reload sent to %d page(s)", n)
			}
		})
		if err != nil {
			log.Warnf("Watcher stopped: %v", err)
		}
	}()
	return nil
}
