package tasks

import (
	"context"
	"log"
	"time"
)

// Reprober - a classifier provider which can be asked to try loading a failed backend again.
type Reprober interface {
	Reprobe(ctx context.Context) error
}

func ReprobeClassifier(provider Reprober) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute) // loading model weights can be slow
	defer cancel()

	if err := provider.Reprobe(ctx); err != nil {
		log.Printf("Classifier backend still unavailable, keyword fallback remains in use: %v", err)
		return
	}
	log.Println("Classifier backend available")
}
