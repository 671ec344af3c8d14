package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/docdex"
	"github.com/poiesic/docdex/ai/mock"
	"github.com/poiesic/docdex/core"
	"github.com/poiesic/docdex/fetch"
	"github.com/poiesic/docdex/ocr"
	"github.com/poiesic/docdex/ratelimit"
)

var sentences = []string{
	"The quick brown fox jumps over the lazy dog.",
	"A gentle breeze rustled the leaves of the old oak tree.",
	"She found a hidden key in the dusty attic.",
	"The city skyline glowed under the starry night sky.",
	"He whispered secrets to the wind, hoping they would travel far.",
	"Rain drummed on the rooftop, creating a soothing rhythm.",
	"A bright comet streaked across the horizon at midnight.",
	"They laughed together as fireworks painted the evening air.",
	"The ancient library held stories that never faded.",
	"Beneath the waves, coral gardens shimmered in colors unseen.",
	"The hummingbird hovered beside a vibrant purple flower.",
	"A mysterious map led them to a forgotten treasure.",
	"Her heart raced as she stepped onto the stage for the first time.",
	"Sunlight filtered through curtains, turning dust motes into golden specks.",
	"They tasted the sweetest strawberries from the farmer's garden.",
	"The old clock chimed thirteen times in an abandoned town.",
	"A sudden thunderclap shattered the silence of the forest.",
	"He composed a melody that echoed through the valleys.",
	"The desert dunes shifted silently under a pale moon.",
	"A small kitten meowed softly, waiting for warmth.",
	"She painted the sunset with bold strokes of crimson and gold.",
	"A silver fox slipped past the fences into the twilight.",
	"They discovered an ancient rune carved deep within the stone.",
	"The wind carried scents of jasmine from distant gardens.",
	"He built a wooden bridge across the swift river.",
	"Her laughter echoed through the empty halls of the old manor.",
	"A lone wolf howled, echoing into the vast night.",
	"They tasted coffee brewed fresh in the quiet dawn.",
	"The moon rose slowly, casting silver light on the lake.",
	"A child drew a rainbow with crayons on the sidewalk.",
	"He felt the rough bark of the tree against his palm.",
	"She carried a bouquet of wildflowers from the meadow.",
	"The train rattled through tunnels carved into stone.",
	"They watched a parade of balloons float over the town square.",
	"A gentle snowfall blanketed the city in quiet white.",
	"He whispered to the stars, hoping they would hear.",
	"The river's current carried leaves downstream like paper boats.",
	"She hummed a tune she learned from her grandmother.",
	"They explored caves filled with stalactites glittering like chandeliers.",
	"A rustling in the bushes signaled the arrival of deer.",
	"He measured the distance between two distant mountains.",
	"The lighthouse beam cut through fog, guiding sailors safely.",
	"She tasted honey straight from a beehive's sweet core.",
	"They sang songs under the open sky during summer nights.",
	"A sudden gust of wind blew the paper away.",
	"He watched the sunrise paint the horizon pink and orange.",
	"The old map showed roads that no longer existed.",
	"She felt a chill run down her spine as the storm approached.",
	"They tasted tea brewed from leaves harvested yesterday.",
	"A silver moon reflected on calm waters.",
	"He carved a wooden boat from a single piece of oak.",
	"The wind carried the scent of rain across the plains.",
	"She collected seashells along the rocky shore.",
	"They watched fireworks burst in colors across the night sky.",
	"A stray cat curled up beside the fire, purring softly.",
	"He measured the time it took to climb the steep hill.",
	"The old photograph showed a family laughing in bright sunlight.",
	"She hummed a lullaby as she tucked her child in bed.",
	"They tasted fresh bread baked just before dawn.",
	"A gentle breeze rustled through the wheat fields.",
}

var (
	seedFileName = flag.String("src", "", "file of seed sentences, one per line")
	dbPath       = flag.String("db", "./docdex_db", "path to BadgerDB database directory")
	outDir       = flag.String("out", "./seed_data", "directory for generated documents and OCR fixtures")
	owner        = flag.String("owner", "seed", "owner recorded on seeded documents")

	sentencesPerParagraph = flag.Int("sentences", 3, "sentences per paragraph")
	paragraphsPerDoc      = flag.Int("paragraphs", 5, "paragraphs per document")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// paragraphsFrom groups sentences into paragraph strings.
func paragraphsFrom(source iter.Seq[string], perParagraph int) []string {
	var paragraphs []string
	var current []string

	for line := range source {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		current = append(current, line)
		if len(current) == perParagraph {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}

	return paragraphs
}

// buildResult assembles an OCR result for a document's paragraphs with
// spans that index into the joined content.
func buildResult(paragraphs []string) (*ocr.Result, string) {
	content := strings.Join(paragraphs, "\n")

	units := make([]ocr.Paragraph, len(paragraphs))
	offset := 0
	for i, text := range paragraphs {
		units[i] = ocr.Paragraph{
			Content: text,
			Spans:   []ocr.Span{{Offset: offset, Length: len(text)}},
			BoundingRegions: []ocr.BoundingRegion{
				{PageNumber: 1, Polygon: []float64{0, float64(i), 1, float64(i), 1, float64(i + 1), 0, float64(i + 1)}},
			},
		}
		offset += len(text) + 1
	}

	return &ocr.Result{
		Status: "succeeded",
		AnalyzeResult: ocr.AnalyzeResult{
			APIVersion: "2023-07-31",
			ModelID:    "prebuilt-read",
			Content:    content,
			Paragraphs: units,
		},
	}, content
}

// seedDocument writes the source file and OCR fixture, uploads the
// document, and runs the pipeline for it.
func seedDocument(ctx context.Context, service *docdex.Service, n int, paragraphs []string) error {
	result, content := buildResult(paragraphs)

	fileName := fmt.Sprintf("doc-%03d.txt", n)
	sourcePath := filepath.Join(*outDir, fileName)
	if err := os.WriteFile(sourcePath, []byte(content), 0o644); err != nil {
		return err
	}

	hash := core.HashBytes([]byte(content))

	fixture, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fixturePath := filepath.Join(*outDir, fmt.Sprintf("%s.json", hash))
	if err := os.WriteFile(fixturePath, fixture, 0o644); err != nil {
		return err
	}

	doc, err := service.Upload(ctx, *owner, fileName, sourcePath, []byte(content))
	if err != nil {
		return err
	}
	service.RegisterOCRResult(doc.Hash, result)

	taskResult, err := service.Process(ctx, *owner, sourcePath)
	if err != nil {
		return err
	}
	if !taskResult.Succeeded() {
		return fmt.Errorf("seeding %s failed: %s: %s", fileName, taskResult.Error.Code, taskResult.Error.Message)
	}

	slog.Info("seeded document",
		"file", fileName,
		"hash", doc.Hash,
		"paragraphs", len(paragraphs),
		"upserted", taskResult.Data.UpsertedCount,
		"fixture", fixturePath,
	)
	return nil
}

func main() {
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		panic(err)
	}

	// Seeding runs many documents back to back; the production quotas
	// would reject most of them.
	service, err := docdex.NewService(*dbPath,
		docdex.WithProvider(mock.NewMockProvider()),
		docdex.WithFetcher(fetch.FetcherFunc(func(_ context.Context, location string) ([]byte, error) {
			return os.ReadFile(location)
		})),
		docdex.WithUserLimits(map[string]ratelimit.Limit{
			ratelimit.ActionUpload:  {Calls: 10000, Window: time.Minute},
			ratelimit.ActionOCR:     {Calls: 10000, Window: time.Minute},
			ratelimit.ActionExtract: {Calls: 10000, Window: time.Minute},
			ratelimit.ActionCore:    {Calls: 10000, Window: time.Minute},
		}),
	)
	if err != nil {
		panic(err)
	}
	defer service.Close()

	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(sentences)
	}

	paragraphs := paragraphsFrom(source, *sentencesPerParagraph)

	ctx := context.Background()
	docNum := 0
	for start := 0; start < len(paragraphs); start += *paragraphsPerDoc {
		end := start + *paragraphsPerDoc
		if end > len(paragraphs) {
			end = len(paragraphs)
		}

		if err := seedDocument(ctx, service, docNum, paragraphs[start:end]); err != nil {
			panic(err)
		}
		docNum++
	}

	slog.Info("seeding complete", "documents", docNum, "paragraphs", len(paragraphs))
}
