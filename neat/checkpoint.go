package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// EncodeState writes a gzip-compressed gob encoding of s to w.
func EncodeState(w io.Writer, s PopulationState) error {
	gzWriter := gzip.NewWriter(w)
	if err := gob.NewEncoder(gzWriter).Encode(s); err != nil {
		_ = gzWriter.Close()
		return fmt.Errorf("failed to encode population data: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush compressed population data: %w", err)
	}
	return nil
}

// DecodeState reads a state written by EncodeState.
func DecodeState(r io.Reader) (PopulationState, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return PopulationState{}, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	var s PopulationState
	if err := gob.NewDecoder(gzReader).Decode(&s); err != nil {
		return PopulationState{}, fmt.Errorf("failed to decode population data: %w", err)
	}
	return s, nil
}

// SaveCheckpoint saves the current state of the Population to a file.
func (p *Population) SaveCheckpoint(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	if err := EncodeState(file, p.State()); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync checkpoint file '%s': %w", filePath, err)
	}

	fmt.Fprintf(p.out(), "Checkpoint saved to %s\n", filePath)
	return nil
}

// LoadCheckpoint loads a Population state from a checkpoint file. The config
// file the run was started with is loaded again, since it is not part of the
// checkpoint.
func LoadCheckpoint(checkpointPath string, configPath string) (*Population, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s' for checkpoint: %w", configPath, err)
	}
	return LoadCheckpointWithConfig(checkpointPath, config)
}

// LoadCheckpointWithConfig loads a Population state from a checkpoint file
// using an already loaded config.
func LoadCheckpointWithConfig(checkpointPath string, config *Config) (*Population, error) {
	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", checkpointPath, err)
	}
	defer file.Close()

	s, err := DecodeState(file)
	if err != nil {
		return nil, err
	}
	p, err := RestorePopulation(config, s)
	if err != nil {
		return nil, fmt.Errorf("failed to restore checkpoint '%s': %w", checkpointPath, err)
	}

	fmt.Fprintf(p.out(), "Checkpoint loaded from %s (Generation %d)\n", checkpointPath, p.Generation)
	return p, nil
}
