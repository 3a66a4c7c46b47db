package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type RunRecord struct {
	ID     int
	Config int // SolverConfig.ID
	SearchMetric
}

// ActionRecord is the root statistics of one action after a run.
type ActionRecord struct {
	Run        int // RunRecord.ID
	Action     string
	Visits     int64
	MeanQValue float64
}

// Setup describes an experiment as a whole.
type Setup struct {
	RunID       string         `yaml:"run_id"`
	Name        string         `yaml:"name"`
	Repetitions int            `yaml:"repetitions"`
	StartTime   time.Time      `yaml:"start_time"`
	EndTime     time.Time      `yaml:"end_time"`
	Configs     []SolverConfig `yaml:"configs"`
}

type Writer struct {
	baseDir string
}

func NewWriter(rootDir, name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(rootDir, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteSetup(setup Setup) error {
	data, err := yaml.Marshal(setup)
	if err != nil {
		return fmt.Errorf("failed to encode setup: %w", err)
	}
	err = os.WriteFile(filepath.Join(w.baseDir, "setup.yaml"), data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write setup file: %w", err)
	}
	return nil
}

func (w *Writer) WriteSolverConfigs(configs []SolverConfig) error {
	header := []string{"id", "goroutines", "duration", "episodes", "max_depth", "discount_factor", "rollout_steps"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			strconv.Itoa(config.Goroutines),
			config.Duration.String(),
			strconv.Itoa(config.Episodes),
			strconv.Itoa(config.MaxDepth),
			strconv.FormatFloat(config.DiscountFactor, 'f', -1, 64),
			strconv.Itoa(config.RolloutSteps),
		})
	}
	return w.writeCSV("solver_configs.csv", "solver configs", header, rows)
}

func (w *Writer) WriteRunRecords(records []RunRecord) error {
	header := []string{"id", "config", "goroutines", "max_depth", "duration", "episodes", "nodes", "finished", "errors"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Config),
			strconv.Itoa(record.Goroutines),
			strconv.Itoa(record.MaxDepth),
			record.Duration.String(),
			strconv.Itoa(record.Episodes),
			strconv.Itoa(record.Nodes),
			strconv.Itoa(record.Statuses["FINISHED"]),
			strconv.Itoa(record.Statuses["ERROR"]),
		})
	}
	return w.writeCSV("run_records.csv", "run records", header, rows)
}

func (w *Writer) WriteActionRecords(records []ActionRecord) error {
	header := []string{"run", "action", "visits", "mean_q"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Run),
			record.Action,
			strconv.FormatInt(record.Visits, 10),
			strconv.FormatFloat(record.MeanQValue, 'f', 4, 64),
		})
	}
	return w.writeCSV("action_records.csv", "action records", header, rows)
}

func (w *Writer) writeCSV(file, what string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(w.baseDir, file))
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", what, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", what, err)
	}
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", what, err)
		}
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", what, err)
	}
	return nil
}
