// Command bled is a demo driver for the Ballot Leader Election core: it
// wires together every replica listed in a cluster manifest, ticks them
// in lockstep, and logs leader transitions as they occur. It stands in
// for "the embedding application" the spec delegates away — a real host
// would drive the same Tick/Handle/TakeOutgoing contract across an
// actual network instead of the in-memory router used here.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Max-Meldrum/omnipaxos/internal/config"
	"github.com/Max-Meldrum/omnipaxos/internal/sim"
)

const tickInterval = 100 * time.Millisecond

func main() {
	manifestPath := flag.String("manifest", "cluster.yaml", "path to the cluster manifest")
	flag.Parse()

	log.Printf("Starting BLE simulation driver (manifest=%s)", *manifestPath)

	manifest, err := config.LoadSimManifest(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to load cluster manifest: %v", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize structured logger: %v", err)
	}
	defer zlog.Sync()

	cluster := sim.NewCluster(manifest.Elections())
	log.Printf("Wired %d replicas, heartbeat_delay=%d ticks", len(manifest.Pids), manifest.HeartbeatDelay)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, ev := range cluster.Step() {
				zlog.Info("leader transition",
					zap.Uint64("observer", ev.Observer),
					zap.Uint64("leader_pid", ev.Leader.Pid),
					zap.Uint32("ballot_n", ev.Leader.Round.N),
					zap.Uint64("ballot_pid", ev.Leader.Round.Pid),
				)
			}

		case sig := <-sigChan:
			log.Printf("Received signal %v, shutting down...", sig)
			return
		}
	}
}
