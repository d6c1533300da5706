package evaluation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"assessrag/internal/domain"
)

const datasetSchemaURL = "assessrag://schemas/eval-dataset.json"

//go:embed dataset.schema.json
var datasetSchema []byte

// LoadDataset reads a JSON array of evaluation records from path.
func LoadDataset(path string) ([]domain.EvalRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset validates data against the dataset schema and decodes it.
func ParseDataset(data []byte) ([]domain.EvalRecord, error) {
	schema, err := compileDatasetSchema()
	if err != nil {
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: dataset is not valid JSON: %v", domain.ErrInvalidArgument, err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: dataset does not match schema: %v", domain.ErrInvalidArgument, err)
	}

	var records []domain.EvalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return records, nil
}

func compileDatasetSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(datasetSchema))
	if err != nil {
		return nil, fmt.Errorf("parse dataset schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(datasetSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add dataset schema: %w", err)
	}
	return compiler.Compile(datasetSchemaURL)
}
