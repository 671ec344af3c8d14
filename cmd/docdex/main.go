// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docdex"
	"github.com/poiesic/docdex/ai"
	"github.com/poiesic/docdex/ai/mock"
	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/fetch"
	"github.com/poiesic/docdex/ingestion"
)

func main() {
	app := &cli.App{
		Name:  "docdex",
		Usage: "Document OCR and embedding ingestion service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./docdex_db",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "text-embedding-3-small",
			},
			&cli.BoolFlag{
				Name:  "mock-embedder",
				Usage: "Use the deterministic mock embedder instead of a live provider",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "upload",
				Usage:  "Register a document for an owner",
				Action: uploadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner of the document",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the document file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Storage location recorded for the document (defaults to the file path)",
					},
				},
			},
			{
				Name:   "process",
				Usage:  "Run the ingestion pipeline for an uploaded document",
				Action: processCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner of the document",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Storage location of the document",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "ocr",
						Usage:    "Path to the OCR result JSON for the document",
						Required: true,
					},
				},
			},
			{
				Name:   "submit",
				Usage:  "Queue asynchronous processing and poll for the outcome",
				Action: submitCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner of the document",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Storage location of the document",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "ocr",
						Usage:    "Path to the OCR result JSON for the document",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "poll-timeout",
						Usage: "How long to wait for the job to finish",
						Value: 2 * time.Minute,
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show the state of a previously submitted job",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "job",
						Aliases:  []string{"j"},
						Usage:    "Job ID returned by submit",
						Required: true,
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Query the vector index",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner issuing the query",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of matches to return",
						Value: 5,
					},
				},
			},
			{
				Name:   "reset",
				Usage:  "Reset a document stuck in PENDING so it can be resubmitted",
				Action: resetCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "owner",
						Aliases:  []string{"o"},
						Usage:    "Owner of the document",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "hash",
						Usage:    "Content hash of the document",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openService wires a Service from the global flags. The fetcher tries
// the location as a local file first and falls back to HTTP, so both
// file paths and URLs work as document locations.
func openService(c *cli.Context) (*docdex.Service, error) {
	opts := []docdex.ServiceOption{
		docdex.WithFetcher(fileOrHTTPFetcher()),
	}

	if c.Bool("mock-embedder") {
		opts = append(opts, docdex.WithProvider(mock.NewMockProvider()))
	} else {
		opts = append(opts, docdex.WithAIConfig(ai.NewConfig(
			ai.WithHost(c.String("embedding-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
		)))
	}

	return docdex.NewService(c.String("db"), opts...)
}

func fileOrHTTPFetcher() fetch.Fetcher {
	httpFetcher := fetch.NewHTTPFetcher()
	return fetch.FetcherFunc(func(ctx context.Context, location string) ([]byte, error) {
		if data, err := os.ReadFile(location); err == nil {
			return data, nil
		}
		return httpFetcher.Fetch(ctx, location)
	})
}

func uploadCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	filePath := c.String("file")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	url := c.String("url")
	if url == "" {
		url = filePath
	}

	doc, err := service.Upload(context.Background(), c.String("owner"), filePath, url, data)
	if err != nil {
		return err
	}

	fmt.Printf("uploaded %s\n", filePath)
	fmt.Printf("  hash:  %s\n", doc.Hash)
	fmt.Printf("  owner: %s\n", doc.Owner)
	fmt.Printf("  url:   %s\n", doc.URL)
	return nil
}

// registerOCR hashes the document at url through the service fetcher's
// view of the world and attaches the OCR fixture to that hash.
func registerOCR(ctx context.Context, service *docdex.Service, url, fixturePath string) (core.ContentHash, error) {
	data, err := fileOrHTTPFetcher().Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to read document at %s: %w", url, err)
	}

	hash := core.HashBytes(data)
	if err := service.LoadOCRFixture(hash, fixturePath); err != nil {
		return "", err
	}
	return hash, nil
}

func processCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	ctx := context.Background()
	url := c.String("url")

	if _, err := registerOCR(ctx, service, url, c.String("ocr")); err != nil {
		return err
	}

	result, err := service.Process(ctx, c.String("owner"), url)
	if err != nil {
		return err
	}

	printResult(result)
	if !result.Succeeded() {
		return cli.Exit("", 1)
	}
	return nil
}

func submitCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	ctx := context.Background()
	url := c.String("url")

	if _, err := registerOCR(ctx, service, url, c.String("ocr")); err != nil {
		return err
	}

	jobID, err := service.Submit(ctx, c.String("owner"), url)
	if err != nil {
		return err
	}
	fmt.Printf("job: %s\n", jobID)

	// Poll until the job settles; jobs run in this process, so exiting
	// early would abandon the work.
	deadline := time.Now().Add(c.Duration("poll-timeout"))
	for time.Now().Before(deadline) {
		job, err := service.JobStatus(ctx, jobID)
		if err != nil {
			return err
		}
		if job.State.Terminal() {
			printJob(job)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return errors.New("timed out waiting for job to finish")
}

func statusCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	job, err := service.JobStatus(context.Background(), c.String("job"))
	if err != nil {
		return err
	}

	printJob(job)
	return nil
}

func searchCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	matches, err := service.Search(context.Background(), c.String("owner"), c.String("query"), c.Int("top-k"))
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		fmt.Println("no matches")
		return nil
	}

	for i, match := range matches {
		fmt.Printf("%d. score=%.4f owner=%s hash=%s\n", i+1, match.Score,
			match.Metadata["owner"], match.Metadata["content_hash"])
		if unit := match.Metadata["unit"]; unit != "" {
			fmt.Printf("   %s\n", unit)
		}
	}
	return nil
}

func resetCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	hash := core.ContentHash(c.String("hash"))
	if err := service.ResetDocument(context.Background(), hash, c.String("owner")); err != nil {
		return err
	}

	fmt.Printf("document %s reset to NOT_STARTED\n", hash)
	return nil
}

func printResult(result *ingestion.TaskResult) {
	if result.Succeeded() {
		fmt.Printf("processed: upserted=%d batches=%d units=%d hash=%s\n",
			result.Data.UpsertedCount, result.Data.Batches, result.Data.Units, result.Data.Hash)
		return
	}
	fmt.Printf("failed: code=%s message=%s\n", result.Error.Code, result.Error.Message)
}

func printJob(job *core.Job) {
	fmt.Printf("job:    %s\n", job.ID)
	fmt.Printf("state:  %s\n", job.State)
	fmt.Printf("owner:  %s\n", job.Owner)
	fmt.Printf("url:    %s\n", job.URL)
	if job.Result != "" {
		fmt.Printf("result: %s\n", job.Result)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
