package jsonfile

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const recordSchemaURL = "thorplan://schemas/action_record.schema.json"

const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "scene_number", "action_name", "action_counter", "problem", "problem_path",
    "action_objective_id", "before_world_status", "after_world_status"
  ],
  "properties": {
    "cycle_id": {"type": "string"},
    "scene_number": {"type": "integer", "minimum": 1},
    "action_name": {"type": "string", "minLength": 1},
    "action_counter": {"type": "integer", "minimum": 1},
    "problem": {"type": "string", "minLength": 1},
    "problem_path": {"type": "string"},
    "action_objective_id": {"type": "string"},
    "liquid": {"enum": ["", "coffee", "wine", "water"]},
    "outcome": {"type": "string"},
    "before_world_status": {"type": ["object", "null"]},
    "after_world_status": {"type": ["object", "null"]},
    "target_changes": {
      "type": ["array", "null"],
      "items": {"type": "array", "items": {"type": "string"}}
    },
    "recorded_at": {"type": "string"}
  }
}`

func compileRecordSchema() (*jsonschema.Schema, error) {
	return jsonschema.CompileString(recordSchemaURL, recordSchema)
}
