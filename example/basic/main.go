package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/VilyWonca/KAF-BACK/database"
	"github.com/VilyWonca/KAF-BACK/helper"
	"github.com/VilyWonca/KAF-BACK/model"
)

var sampleChunks = []string{
	"Prince Andrew had not seen his father since the beginning of the campaign and found him much aged.",
	"The old prince received the news of the war with outward calm, though he spoke of little else for days.",
	"Pierre walked the streets of Moscow watching the fires spread from quarter to quarter through the night.",
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	db, err := helper.NewDatabase("example", dbConfig, slog.New(slog.DiscardHandler))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Small embedding dimension so the example runs without a model
	documents, err := database.NewDocumentsDBHandler(db, 3, false)
	if err != nil {
		log.Fatalf("Failed to create documents handler: %v", err)
	}

	fmt.Println("Ingesting chunks...")
	for i, text := range sampleChunks {
		record := &model.DocumentRecord{
			Text:       text,
			Filename:   model.ChunkFilename("War and Peace ... Leo Tolstoy.pdf", 1, i),
			BookTitle:  "War and Peace",
			Author:     "Leo Tolstoy",
			PageNumber: 1,
			Embedding:  []float32{float32(i), 1, 0},
		}
		if err := documents.InsertDocument(record); err != nil {
			log.Fatalf("Failed to insert chunk: %v", err)
		}
		fmt.Printf("Inserted chunk %s with ID %d\n", record.Filename, record.ID)
	}

	// Keyword search needs no query embedding
	queryText := "fires in Moscow"
	fmt.Printf("\nQuerying: %s\n", queryText)

	config := model.DefaultSearchConfig(model.SearchModeKeyword)
	passages, err := documents.SearchByText(context.Background(), queryText, nil, config)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nFound %d passages:\n", len(passages))
	for i, passage := range passages {
		fmt.Printf("\n--- Passage %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", passage.Score)
		fmt.Printf("Source: %s, %q, page %d\n", passage.Author, passage.Title, passage.PageNumber)
		fmt.Printf("Text: %s\n", passage.Text)
	}

	fmt.Println("\nBasic example completed successfully!")
}
