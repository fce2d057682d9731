package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/coursehub-backend/internal/app"
)

// recompute_progress re-derives progress_percent and completed_at for every enrollment from the
// lessons each user has actually completed.
func main() {
	var batch int
	var timeout time.Duration
	flag.IntVar(&batch, "batch", 200, "enrollments loaded per batch")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "give up after this long")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	n, err := application.Services.Enrollment.RecomputeAll(ctx, batch)
	if err != nil {
		application.Log.Error("Recompute progress failed", "visited", n, "error", err)
		fmt.Printf("recompute progress: %v\n", err)
		os.Exit(1)
	}
	application.Log.Info("Recomputed enrollment progress", "visited", n, "took", time.Since(start).String())
	fmt.Printf("recomputed %d enrollments\n", n)
}
