package lingo

import (
	"context"
	"errors"
	"fmt"
)

// EngineConfig holds transformation engine configuration
type EngineConfig struct {
	// Logger is used for structured logging (default: NoopLogger)
	Logger Logger
}

// Engine computes derived field values. It dispatches over the closed set of
// field kinds and writes results back through the host row store, one bulk
// write per row set.
type Engine struct {
	gateway *Gateway
	rows    RowStore
	admins  AdminResolver
	config  EngineConfig
}

// NewEngine creates a new transformation engine
func NewEngine(gateway *Gateway, rows RowStore, admins AdminResolver, config EngineConfig) (*Engine, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if rows == nil {
		return nil, fmt.Errorf("row store is required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin resolver is required")
	}
	if config.Logger == nil {
		config.Logger = &NoopLogger{}
	}

	return &Engine{
		gateway: gateway,
		rows:    rows,
		admins:  admins,
		config:  config,
	}, nil
}

// Transform computes the derived value for one source value. An empty source
// short-circuits to the kind's neutral value without touching the gateway or
// the ledger, so empty input is never charged.
func (e *Engine) Transform(ctx context.Context, spec *FieldSpec, sourceValue, userID string) (any, error) {
	switch spec.Kind {
	case KindTranslation:
		if sourceValue == "" {
			return "", nil
		}
		return e.gateway.Translate(ctx, sourceValue, spec.SourceLanguage, spec.TargetLanguage, spec.Service, userID)

	case KindTransliteration:
		if sourceValue == "" {
			return "", nil
		}
		return e.gateway.Transliterate(ctx, sourceValue, spec.TransliterationID, userID)

	case KindDictionaryLookup:
		if sourceValue == "" {
			return "", nil
		}
		return e.gateway.Lookup(ctx, sourceValue, spec.LookupID, userID)

	case KindChineseRomanization:
		if sourceValue == "" {
			return nil, nil
		}
		return e.gateway.Romanize(ctx, sourceValue, spec.Romanization, spec.ToneNumbers, spec.Spaces)

	default:
		return nil, fmt.Errorf("unknown field kind %q", spec.Kind)
	}
}

// ApplyToRows computes and writes the derived value for every row in the set
// and persists all affected rows with a single bulk write at the end.
//
// Usage is attributed to the workspace administrator. When the workspace has
// no administrator the transformation is skipped with an error log and the
// values are left unchanged; the caller's request is not failed.
//
// A transformation or quota error aborts the remaining rows of the set, but
// values computed before the error are still written; nothing is rolled back.
func (e *Engine) ApplyToRows(ctx context.Context, spec *FieldSpec, set RowSet) error {
	if spec.SourceFieldID == nil {
		return nil
	}

	adminID, err := e.admins.WorkspaceAdmin(ctx, spec.WorkspaceID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			e.config.Logger.Error("no workspace admin, skipping transformation",
				Field{Key: "workspace_id", Value: spec.WorkspaceID},
				Field{Key: "field_id", Value: spec.ID},
			)
			return nil
		}
		return err
	}

	sourceColumn := spec.SourceColumn()
	column := spec.Column()

	var updated []*Row
	applyErr := set.Each(func(row *Row) error {
		value, err := e.Transform(ctx, spec, stringValue(row.Values[sourceColumn]), adminID)
		if err != nil {
			return err
		}
		if row.Values == nil {
			row.Values = make(map[string]any)
		}
		row.Values[column] = value
		updated = append(updated, row)
		return nil
	})

	if len(updated) > 0 {
		if err := e.rows.BulkUpdate(ctx, spec.TableID, updated, column); err != nil {
			return err
		}
	}
	return applyErr
}

// ExportValue returns the externally visible representation of a stored
// derived value: the override-aware rendering for romanization records, the
// stored string for everything else.
func (e *Engine) ExportValue(spec *FieldSpec, value any) any {
	if spec.Kind != KindChineseRomanization {
		return value
	}
	rec, ok := value.(*RomanizationRecord)
	if !ok || rec == nil {
		return value
	}
	return rec.ExportValue()
}

// stringValue reads a row cell as text; nil and non-string cells read as ""
func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
