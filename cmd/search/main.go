// Command search embeds a query string and prints ranked transcript
// chunks from the given videos.
//
// Usage:
//
//	search -videos id1,id2 -k 5 -threshold 0.7 "how do goroutines leak"
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"clipindex/internal/app"
	"clipindex/internal/config"
)

func main() {
	videos := flag.String("videos", "", "comma-separated video ids (required)")
	topK := flag.Int("k", 5, "maximum number of matches")
	threshold := flag.Float64("threshold", 0, "minimum cosine similarity")
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		log.Fatal("query text is required")
	}
	if *videos == "" {
		log.Fatal("-videos is required")
	}
	videoIDs := strings.Split(*videos, ",")

	_ = godotenv.Load()
	cfg := config.Load()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	ctx := context.Background()

	vectors, err := a.Embedder.Embed(ctx, []string{query})
	if err != nil {
		log.Fatalf("embed query: %v", err)
	}

	matches, err := a.Store.Search(ctx, vectors[0], videoIDs, *topK, *threshold)
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	if len(matches) == 0 {
		fmt.Println("no matches")
		return
	}

	for i, m := range matches {
		fmt.Printf("%d. [%.3f] %s #%d (%.0fs-%.0fs)\n", i+1, m.Similarity,
			m.Chunk.VideoID, m.Chunk.ChunkIndex,
			m.Chunk.StartTimeSeconds, m.Chunk.EndTimeSeconds)
		fmt.Printf("   %s\n", snippet(m.Chunk.Text, 200))
	}
}

func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
