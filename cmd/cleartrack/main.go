package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cleartrack/client/internal/api"
	"github.com/cleartrack/client/internal/blob"
	"github.com/cleartrack/client/internal/config"
	"github.com/cleartrack/client/internal/gateway"
	"github.com/cleartrack/client/internal/model"
	"github.com/cleartrack/client/internal/notify"
	"github.com/cleartrack/client/internal/registry"
	"github.com/cleartrack/client/internal/review"
	"github.com/cleartrack/client/internal/status"
	"github.com/cleartrack/client/internal/telemetry"
)

func main() {
	preset := flag.String("preset", string(model.PresetNoiseReduction), "processing preset (speech_enhancement, speaker_separation, music_separation, noise_reduction)")
	projects := flag.Bool("projects", false, "list previously completed projects and exit")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 && !*projects {
		fmt.Fprintf(os.Stderr, "usage: %s [-preset name] file [file...]\n", os.Args[0])
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Core components
	blobs := blob.NewStore()
	emitter := notify.NewEmitter()
	apiClient := api.NewClient(&cfg.API)

	if *projects {
		listProjects(apiClient)
		return
	}
	channels := status.NewManager(apiClient, status.Mode(cfg.Status.Mode), time.Duration(cfg.Status.PollInterval)*time.Second)
	jobs := registry.New(apiClient, channels, blobs, emitter)
	selector := review.NewSelector(jobs, apiClient, blobs)

	// Local gateway for preview playback and websocket notifications
	gw := gateway.New(blobs, emitter)
	go func() {
		if err := gw.Listen(":" + cfg.Gateway.Port); err != nil {
			log.Printf("Gateway error: %v", err)
		}
	}()

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler())
		if err := http.ListenAndServe(":"+cfg.Metrics.Port, mux); err != nil {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	// Subscribe before submitting so no terminal event is missed
	subID, events := emitter.Subscribe(64)
	defer emitter.Unsubscribe(subID)

	submitted := 0
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		id, err := jobs.Submit(registry.Submission{
			FileName: filepath.Base(path),
			Content:  content,
			Preset:   model.Preset(*preset),
		})
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		log.Printf("Submitted %s as job %s", path, id)
		submitted++
	}
	if submitted == 0 {
		log.Fatal("Nothing submitted")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	terminal := 0
	for terminal < submitted {
		select {
		case ev := <-events:
			switch ev.Type {
			case model.EventJobCompleted:
				log.Printf("✓ %s", ev.Message)
			case model.EventJobFailed:
				log.Printf("✗ %s: %s", ev.FileName, ev.Message)
			}
			terminal++
		case <-quit:
			shutdown(channels, selector, gw, emitter)
			return
		}
	}

	// Open the newest completed job for review and print its preview URLs.
	for _, j := range jobs.List() {
		if j.Status != model.JobStatusCompleted {
			continue
		}
		if err := selector.SelectJob(j.ID); err != nil {
			log.Printf("Review failed: %v", err)
			break
		}
		sel := awaitPreview(selector, 30*time.Second)
		log.Printf("Reviewing %s", sel.DisplayName)
		if sel.Original.Valid() {
			log.Printf("  original:  http://localhost:%s/blobs/%s", cfg.Gateway.Port, sel.Original.Token())
		}
		if sel.Result.Valid() {
			log.Printf("  processed: http://localhost:%s/blobs/%s", cfg.Gateway.Port, sel.Result.Token())
		}
		break
	}

	log.Printf("Gateway serving previews on :%s — Ctrl-C to exit", cfg.Gateway.Port)
	<-quit
	shutdown(channels, selector, gw, emitter)
}

// listProjects prints the remote catalog of completed work.
func listProjects(apiClient *api.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	list, err := apiClient.ListProjects(ctx)
	if err != nil {
		log.Fatalf("Failed to list projects: %v", err)
	}
	if len(list) == 0 {
		fmt.Println("No projects.")
		return
	}
	for _, p := range list {
		name := p.OriginalFilename
		if p.ProjectName != nil && *p.ProjectName != "" {
			name = *p.ProjectName
		}
		fmt.Printf("%s  %-10s  %s  (%s)\n", p.JobID, p.Status, name, p.CreatedAt)
	}
}

// awaitPreview waits until the selection finishes loading or the deadline
// passes, then returns the current snapshot.
func awaitPreview(selector *review.Selector, timeout time.Duration) review.Selection {
	watchID, changed := selector.Watch()
	defer selector.Unwatch(watchID)
	deadline := time.After(timeout)

	for {
		sel := selector.Selection()
		if !sel.Loading {
			return sel
		}
		select {
		case <-changed:
		case <-deadline:
			return selector.Selection()
		}
	}
}

func shutdown(channels *status.Manager, selector *review.Selector, gw *gateway.Server, emitter *notify.Emitter) {
	log.Println("Shutting down...")
	channels.CloseAll()
	selector.Clear()
	if err := gw.Shutdown(); err != nil {
		log.Printf("Gateway shutdown error: %v", err)
	}
	emitter.Close()
}
