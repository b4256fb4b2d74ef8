package main

import (
	"log/slog"

	"github.com/soundprediction/aboxlink/pkg/logger"
)

func main() {
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Debug("embedding label pools", "rows", 112)
	log.Info("vocabulary indexed", "classes", 44, "object_properties", 8, "data_properties", 7)
	log.Warn("low confidence entity link", "mention", "the thing")
	log.Info("batch linked", "total", 5, "succeeded", 4, "skipped", 1)
	log.Info("graph persisted", "resources", 12, "relationships", 6)
	log.Error("vocabulary load failed", "source", "missing.yaml")
}
