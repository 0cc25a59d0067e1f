package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"heartrisk/config"
	"heartrisk/dataset"
	"heartrisk/db"
	"heartrisk/ml"
	"heartrisk/monitoring"
)

func main() {
	reference := flag.String("reference", "data/heart_2020_cleaned.csv", "reference dataset CSV")
	modelPath := flag.String("model_path", "./models/model.json", "model output path")
	schemaPath := flag.String("schema_path", "./models/schema.json", "feature schema output path")
	maxDepth := flag.Int("max_depth", 10, "max tree depth")
	testRatio := flag.Float64("test_ratio", 0.2, "test ratio")
	dbPath := flag.String("db", "", "record the training run in this SQLite database")
	flag.Parse()

	logger, err := monitoring.NewLogger(config.LogConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*reference, *modelPath, *schemaPath, *maxDepth, *testRatio, *dbPath, logger); err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}
}

func run(reference, modelPath, schemaPath string, maxDepth int, testRatio float64, dbPath string, logger *zap.Logger) error {
	table, err := dataset.NewLoader(reference, logger).Load()
	if err != nil {
		return err
	}
	schema, err := ml.BuildSchema(table)
	if err != nil {
		return err
	}
	enc, err := ml.NewEncoder(schema)
	if err != nil {
		return err
	}

	features, labels, err := ml.BuildTrainingSet(table, enc)
	if err != nil {
		return fmt.Errorf("failed to build training data: %w", err)
	}
	trainX, trainY, testX, testY := ml.SplitDataset(features, labels, testRatio)

	model := ml.NewDecisionTree(maxDepth, schema.Columns, schema.Version)
	if err := model.Train(trainX, trainY); err != nil {
		return fmt.Errorf("failed to train model: %w", err)
	}

	accuracy, precision, recall := ml.Evaluate(model, testX, testY)
	logger.Info("model evaluated",
		zap.Float64("accuracy", accuracy),
		zap.Float64("precision", precision),
		zap.Float64("recall", recall),
		zap.Int("train_rows", len(trainX)),
		zap.Int("test_rows", len(testX)),
	)

	for _, path := range []string{modelPath, schemaPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := ml.SaveModel(model, modelPath); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	if err := schema.SaveSchema(schemaPath); err != nil {
		return fmt.Errorf("failed to save schema: %w", err)
	}
	logger.Info("artifacts written",
		zap.String("model", modelPath),
		zap.String("schema", schemaPath),
		zap.String("schema_version", schema.Version),
	)

	if dbPath == "" {
		return nil
	}
	store, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveTrainingLog(context.Background(), db.TrainingLog{
		ModelName:     ml.ModelTypeDecisionTree,
		SchemaVersion: schema.Version,
		Accuracy:      accuracy,
		Precision:     precision,
		Recall:        recall,
		TrainedAt:     time.Now(),
		DataPoints:    len(features),
	})
}
