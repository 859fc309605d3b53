package main

import (
	"log"
	"sync"
	"time"

	"h2beam/beam"
	"h2beam/beam/introspect"
	"h2beam/beam/reaper"
	"h2beam/logger"
)

func main() {
	producerArena, err := beam.NewArena(1<<20, logger.Default)
	if err != nil {
		log.Fatalf("error creating producer arena: %v", err)
	}
	consumerArena, err := beam.NewArena(1<<20, logger.Default)
	if err != nil {
		log.Fatalf("error creating consumer arena: %v", err)
	}

	cfg := beam.NewDefaultConfig()
	cfg.MaxBufSize = 64 * 1024

	b := beam.NewBeam(beam.OwnerConsumer, consumerArena, cfg, logger.Default)
	b.BindSendArena(producerArena)
	b.BindRecvArena(consumerArena)

	registry, err := introspect.NewRegistry()
	if err != nil {
		log.Fatalf("error creating introspect registry: %v", err)
	}
	registry.Register(b)

	r, err := reaper.New(cfg.ReaperSchedule, logger.Default)
	if err != nil {
		log.Fatalf("error creating reaper: %v", err)
	}
	r.Watch(b)
	r.Start()
	defer r.Stop()

	b.OnProduced(func(b *beam.Beam, delta int64) {
		logger.Default.Debugf("produced %d bytes", delta)
	})
	b.OnConsumed(func(b *beam.Beam, delta int64) {
		logger.Default.Debugf("consumed %d bytes", delta)
	})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		lines := []string{"hello, ", "beam ", "demo\n"}
		for _, line := range lines {
			chunks := []*beam.Chunk{beam.NewBytesChunk([]byte(line))}
			if err := b.Send(chunks, beam.Blocking); err != nil {
				logger.Default.Errorf("send error: %v", err)
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		_ = b.Send([]*beam.Chunk{beam.NewEndOfStreamChunk()}, beam.Blocking)
	}()

	go func() {
		defer wg.Done()
		for {
			br, err := b.Receive(beam.Blocking, 0)
			if err != nil {
				logger.Default.Logf("receive ended: %v", err)
				return
			}
			for _, item := range br {
				if item.Proxy != nil {
					data, err := item.Proxy.Read()
					if err != nil {
						logger.Default.Errorf("proxy read error: %v", err)
						continue
					}
					logger.Default.Logf("received: %q", string(data))
					item.Proxy.Release()
				}
			}
		}
	}()

	wg.Wait()
	producerArena.Kill()
	consumerArena.Kill()
	b.Destroy()

	if err := registry.Refresh(); err != nil {
		logger.Default.Errorf("registry refresh error: %v", err)
	}
	for _, id := range registry.Destroyed() {
		registry.Unregister(id)
	}
}
