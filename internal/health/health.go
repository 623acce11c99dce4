// Package health probes the backing services of the API.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultTimeout = 5 * time.Second

// Probe reports an error when a dependency is unusable.
type Probe func(ctx context.Context) error

// DatabaseProbe pings the connection pool behind conn.
func DatabaseProbe(conn *gorm.DB) Probe {
	return func(ctx context.Context) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return errors.Annotate(err, "getting database handle")
		}

		if err := sqlDB.PingContext(ctx); err != nil {
			return errors.Annotate(err, "pinging database")
		}

		return nil
	}
}

// RedisProbe pings client.
func RedisProbe(client *redis.Client) Probe {
	return func(ctx context.Context) error {
		return errors.Annotate(client.Ping(ctx).Err(), "pinging redis")
	}
}

type Checker struct {
	probes  map[string]Probe
	timeout time.Duration
}

// NewChecker returns a checker that gives each probe timeout to answer.
// A zero timeout falls back to five seconds.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Checker{probes: make(map[string]Probe), timeout: timeout}
}

// Register adds a named probe. It is not safe to call once Check runs.
func (c *Checker) Register(name string, probe Probe) *Checker {
	c.probes[name] = probe
	return c
}

// Report maps each component to "ok" or its failure.
type Report struct {
	Healthy    bool              `json:"healthy"`
	Components map[string]string `json:"components"`
}

// Check runs every probe concurrently.
func (c *Checker) Check(ctx context.Context) Report {
	report := Report{Healthy: true, Components: make(map[string]string, len(c.probes))}

	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, probe Probe) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			results[i] = probe(probeCtx)
		}(i, c.probes[name])
	}
	wg.Wait()

	for i, name := range names {
		if results[i] != nil {
			report.Healthy = false
			report.Components[name] = results[i].Error()
			continue
		}
		report.Components[name] = "ok"
	}

	return report
}
