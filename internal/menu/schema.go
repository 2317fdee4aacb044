package menu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// snapshotSchema is the contract for serialized menu documents. Snapshots
// written by the store and menu payloads imported from disk are validated
// against it before they are accepted, so a hand-edited or truncated file
// fails loudly instead of producing half-loaded menus.
const snapshotSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["date", "meals"],
    "properties": {
      "date": {
        "type": "string",
        "pattern": "^\\d{4}-\\d{2}-\\d{2}$"
      },
      "meals": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["type", "time", "items"],
          "properties": {
            "type": {"enum": ["breakfast", "lunch", "dinner"]},
            "time": {"type": "string", "pattern": "^\\d{1,2}:\\d{2}$"},
            "items": {
              "type": "array",
              "items": {
                "type": "object",
                "required": ["name", "order", "category_order"],
                "properties": {
                  "name": {"type": "string", "minLength": 1},
                  "description": {"type": "string"},
                  "category": {"type": "string"},
                  "price": {"type": "number", "minimum": 0},
                  "order": {"type": "integer", "minimum": 0},
                  "category_order": {"type": "integer", "minimum": 0}
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	compiledSchema     *jsonschema.Schema
	compileSchemaOnce  sync.Once
	compileSchemaError error
)

func compiled() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("menus.json", bytes.NewReader([]byte(snapshotSchema))); err != nil {
			compileSchemaError = fmt.Errorf("failed to load menu schema: %w", err)
			return
		}
		compiledSchema, compileSchemaError = compiler.Compile("menus.json")
	})
	return compiledSchema, compileSchemaError
}

// ValidateDocument checks raw serialized menus against the snapshot schema.
func ValidateDocument(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("menu document is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("menu document does not match schema: %w", err)
	}
	return nil
}

// DecodeDocument validates and decodes a serialized menu document.
func DecodeDocument(data []byte) ([]DailyMenu, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var menus []DailyMenu
	if err := json.Unmarshal(data, &menus); err != nil {
		return nil, fmt.Errorf("failed to decode menu document: %w", err)
	}
	for _, dm := range menus {
		if err := dm.Validate(); err != nil {
			return nil, err
		}
	}
	return menus, nil
}

// EncodeDocument serializes menus to the snapshot wire form.
func EncodeDocument(menus []DailyMenu) ([]byte, error) {
	data, err := json.MarshalIndent(menus, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode menu document: %w", err)
	}
	return data, nil
}
