// Command zinc-bench drives a synthetic mixed read/write/reset/finish
// workload against an in-memory zoned backend through a zinc scheduler,
// printing periodic metrics snapshots. It plays the demo-CLI role the
// teacher's ublk-mem played for a real block device, minus the device
// node: there is no kernel-visible disk here, only the scheduler and
// backend talking to each other in-process.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/zinc-io/zinc"
	"github.com/zinc-io/zinc/backend"
	"github.com/zinc-io/zinc/internal/logging"
	"github.com/zinc-io/zinc/internal/runner"
)

func main() {
	var (
		sizeStr    = flag.String("zone-size", "16M", "Zone size (e.g., 16M, 256M)")
		numZones   = flag.Int("zones", 32, "Number of zones")
		numQueues  = flag.Int("queues", 2, "Number of simulated hardware queues")
		queueDepth = flag.Int("depth", 64, "Per-queue submission depth")
		verbose    = flag.Bool("v", false, "Verbose output")
		duration   = flag.Duration("duration", 10*time.Second, "How long to run the synthetic workload")
	)
	flag.Parse()

	zoneSize, err := parseSize(*sizeStr)
	if err != nil {
		log.Fatalf("invalid zone size %q: %v", *sizeStr, err)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	mem := backend.NewZonedMemory(*numZones, zoneSize)
	defer mem.Close()

	cfg := zinc.DefaultConfig()
	device, err := zinc.Attach(cfg, *numZones, zoneSize)
	if err != nil {
		logger.Error("failed to attach device", "error", err)
		os.Exit(1)
	}
	defer device.Detach()

	device.Scheduler.SetLogger(logger)
	metrics := device.Metrics()
	observer := zinc.NewMetricsObserver(metrics)
	device.Scheduler.SetObserver(observer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runners := make([]*runner.Runner, *numQueues)
	for i := range runners {
		r := runner.NewRunner(ctx, runner.Config{
			QueueID:   i,
			Depth:     *queueDepth,
			Backend:   mem,
			Scheduler: device.Scheduler,
			Logger:    logger,
			Observer:  observer,
		})
		r.Start()
		runners[i] = r
	}
	defer func() {
		for _, r := range runners {
			r.Stop()
		}
	}()

	logger.Info("device attached",
		"zones", *numZones,
		"zone_size", formatSize(zoneSize),
		"queues", *numQueues)

	fmt.Printf("zinc-bench: %d zones x %s, %d queues, depth %d\n", *numZones, formatSize(zoneSize), *numQueues, *queueDepth)
	fmt.Printf("Press Ctrl+C to stop early.\n")

	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			snap := metrics.Snapshot()
			logger.Info("metrics snapshot on demand",
				"read_ops", snap.ReadOps, "write_ops", snap.WriteOps,
				"avg_latency_ns", snap.AvgLatencyNs)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	workloadDone := make(chan struct{})
	go runWorkload(ctx, runners, *numZones, zoneSize, workloadDone)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	deadline := time.After(*duration)

	for {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			cancel()
			<-workloadDone
			printSnapshot(metrics.Snapshot())
			return
		case <-deadline:
			logger.Info("duration elapsed, stopping")
			cancel()
			<-workloadDone
			printSnapshot(metrics.Snapshot())
			return
		case <-ticker.C:
			printSnapshot(metrics.Snapshot())
		}
	}
}

// runWorkload issues a mixed read/write/reset/finish stream against
// the runners until ctx is canceled, emulating the kind of coexisting
// workload-and-management traffic the scheduler arbitrates between.
func runWorkload(ctx context.Context, runners []*runner.Runner, numZones int, zoneSize int64, done chan<- struct{}) {
	defer close(done)

	prios := []zinc.PrioClass{zinc.RealTime, zinc.BestEffort, zinc.Idle}
	sectorsPerIO := uint32(8) // 4KB at 512B sectors
	bufSize := sectorsPerIO * 512

	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		zone := rand.Intn(numZones)
		zoneStartSector := uint64(zone) * uint64(zoneSize) / 512
		sector := zoneStartSector + uint64(rand.Intn(int(zoneSize/512)-int(sectorsPerIO)))
		prio := prios[i%len(prios)]
		r := runners[i%len(runners)]

		switch roll := rand.Float64(); {
		case roll < 0.55:
			req := runner.NewPooledWorkloadRequest(0, sector, sectorsPerIO, prio)
			_ = r.Submit(req)
		case roll < 0.9:
			buf := make([]byte, bufSize)
			rand.Read(buf)
			req := runner.NewWorkloadRequest(1, sector, buf, prio)
			_ = r.Submit(req)
		case roll < 0.97:
			req := runner.NewManagementRequest(15, zone) // zone reset
			_ = r.Submit(req)
		default:
			req := runner.NewManagementRequest(12, zone) // zone finish
			_ = r.Submit(req)
		}

		i++
		time.Sleep(time.Millisecond)
	}
}

func printSnapshot(snap zinc.MetricsSnapshot) {
	fmt.Printf("[%s] reads=%d writes=%d avg_latency=%dns reset(drain/token/starve)=%d/%d/%d finish(drain/token/starve)=%d/%d/%d\n",
		time.Now().Format(time.RFC3339),
		snap.ReadOps, snap.WriteOps, snap.AvgLatencyNs,
		snap.ManagementAdmittedDrain[0], snap.ManagementAdmittedToken[0], snap.ManagementAdmittedStarvation[0],
		snap.ManagementAdmittedDrain[1], snap.ManagementAdmittedToken[1], snap.ManagementAdmittedStarvation[1],
	)
}

// parseSize parses a size string like "64M", "1G", "512K".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(s)

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "G")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}

// formatSize formats a byte count as a human-readable string.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T"}
	return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
}
