package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultPollInterval = 30 * time.Second

// Poller refreshes climate entities on a fixed interval.
type Poller struct {
	entities []ClimateEntity
	interval time.Duration
}

// NewPoller keeps only entities that ask to be polled.
func NewPoller(entities []ClimateEntity, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	polled := make([]ClimateEntity, 0, len(entities))
	for _, entity := range entities {
		if entity == nil || !entity.ShouldPoll() {
			continue
		}
		polled = append(polled, entity)
	}
	return &Poller{entities: polled, interval: interval}
}

// CollectEntities gathers entities from every plugin that provides them.
func CollectEntities(plugins []Plugin) []ClimateEntity {
	var out []ClimateEntity
	for _, plugin := range plugins {
		provider, ok := plugin.(EntityProvider)
		if !ok {
			continue
		}
		out = append(out, provider.Entities()...)
	}
	return out
}

// Entities returns the entities this poller refreshes.
func (p *Poller) Entities() []ClimateEntity {
	return p.entities
}

// Run refreshes once immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	if len(p.entities) == 0 {
		return
	}

	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce updates every entity concurrently and waits for all of them.
// Update errors are logged; they never stop the loop.
func (p *Poller) PollOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, entity := range p.entities {
		wg.Add(1)
		go func(entity ClimateEntity) {
			defer wg.Done()
			if err := entity.Update(ctx); err != nil {
				log.Error().Err(err).Str("entity", entity.Name()).Msg("climate update failed")
			}
		}(entity)
	}
	wg.Wait()
}
