package skillgraph

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// curriculumSchema is the JSON schema every curriculum file must satisfy
// before the graph is built. Schema validation catches shape problems
// (missing fields, wrong types); validateCatalog catches semantic ones
// (cycles, weight sums).
const curriculumSchema = `{
  "type": "object",
  "required": ["units", "skills"],
  "properties": {
    "units": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "exam_weight": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "skills": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "code", "name", "unit_id", "exam_weight", "tier"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "code": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "unit_id": {"type": "string", "minLength": 1},
          "exam_weight": {"type": "number", "minimum": 0, "maximum": 1},
          "tier": {"type": "string", "enum": ["foundation", "core", "advanced"]},
          "prerequisites": {"type": "array", "items": {"type": "string"}},
          "is_active": {"type": "boolean"}
        }
      }
    }
  }
}`

var (
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
	compileSchemaOnce sync.Once
)

func getCompiledSchema() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		var parsed any
		if err := json.Unmarshal([]byte(curriculumSchema), &parsed); err != nil {
			compiledSchemaErr = fmt.Errorf("parse curriculum schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://curriculum.json", parsed); err != nil {
			compiledSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = c.Compile("schema://curriculum.json")
	})
	return compiledSchema, compiledSchemaErr
}

// skillJSON mirrors Skill but keeps is_active optional so omission
// defaults to active.
type skillJSON struct {
	ID            string         `json:"id"`
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	UnitID        string         `json:"unit_id"`
	ExamWeight    float64        `json:"exam_weight"`
	Tier          DifficultyTier `json:"tier"`
	Prerequisites []string       `json:"prerequisites"`
	IsActive      *bool          `json:"is_active"`
}

type curriculumFile struct {
	Units  []Unit      `json:"units"`
	Skills []skillJSON `json:"skills"`
}

// Load reads, schema-validates, and builds a graph from a curriculum file.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses and validates raw curriculum JSON.
func LoadBytes(data []byte) (*Graph, error) {
	schema, err := getCompiledSchema()
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("invalid curriculum JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("curriculum schema validation failed: %w", err)
	}

	var file curriculumFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}

	skills := make([]Skill, len(file.Skills))
	for i, sj := range file.Skills {
		skills[i] = Skill{
			ID:            sj.ID,
			Code:          sj.Code,
			Name:          sj.Name,
			UnitID:        sj.UnitID,
			ExamWeight:    sj.ExamWeight,
			Tier:          sj.Tier,
			Prerequisites: sj.Prerequisites,
			IsActive:      sj.IsActive == nil || *sj.IsActive,
		}
	}

	return NewGraph(file.Units, skills)
}
