// Package notify ejecuta efectos secundarios best-effort (mensajes de sistema)
// fuera del request, con reintentos acotados. Un Submit nunca bloquea y el
// resultado del job nunca vuelve a quien lo encoló.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/platform/metrics"

	"github.com/cenkalti/backoff/v5"
)

type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts uint
	Backoff     time.Duration // intervalo inicial (exponencial)
	Timeout     time.Duration // por intento
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 200 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return c
}

type Dispatcher struct {
	cfg Config
	log logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	jobs   chan Job
	wg     sync.WaitGroup
}

// New arranca los workers. Hay que llamar Close para liberarlos.
func New(cfg Config, log logger.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		cfg:    cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(chan Job, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Submit encola sin bloquear. false si la cola está llena o ya se cerró;
// el job descartado cuenta como notificación fallida.
func (d *Dispatcher) Submit(j Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(j, "dispatcher closed")
		return false
	}
	select {
	case d.jobs <- j:
		return true
	default:
		d.drop(j, "queue full")
		return false
	}
}

// Close deja de aceptar jobs y espera a que se vacíe la cola. Si ctx vence
// antes, cancela los intentos en curso y devuelve ctx.Err().
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.run(j)
	}
}

func (d *Dispatcher) run(j Job) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.cfg.Backoff

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		actx, cancel := context.WithTimeout(d.ctx, d.cfg.Timeout)
		defer cancel()
		return struct{}{}, safeRun(actx, j)
	}

	_, err := backoff.Retry(d.ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(d.cfg.MaxAttempts),
	)
	if err != nil {
		metrics.NotificationFailures.Inc()
		d.log.Warn("notification failed", map[string]any{"job": j.Name, "attempts": attempt, "err": err})
		return
	}
	d.log.Debug("notification sent", map[string]any{"job": j.Name, "attempts": attempt})
}

func (d *Dispatcher) drop(j Job, reason string) {
	metrics.NotificationFailures.Inc()
	d.log.Warn("notification dropped", map[string]any{"job": j.Name, "reason": reason})
}

func safeRun(ctx context.Context, j Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = backoff.Permanent(fmt.Errorf("job %s panicked: %v", j.Name, r))
		}
	}()
	return j.Run(ctx)
}
