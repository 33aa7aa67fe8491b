package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/hspdebug/config"
	"github.com/grovetools/hspdebug/internal/launch"
)

func main() {
	outputDir := "schema/definitions"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	schemas := []struct {
		name     string
		generate func() ([]byte, error)
	}{
		{"config.schema.json", config.GenerateSchema},
		{"launch.schema.json", launch.GenerateSchema},
	}

	for _, s := range schemas {
		schemaBytes, err := s.generate()
		if err != nil {
			log.Fatalf("Error generating %s: %v", s.name, err)
		}
		outputPath := filepath.Join(outputDir, s.name)
		if err := os.WriteFile(outputPath, schemaBytes, 0644); err != nil {
			log.Fatalf("Error writing schema file: %v", err)
		}
		log.Printf("Successfully generated schema at %s", outputPath)
	}
}
