package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/Visionatedigital/M-and-T/models"
	"github.com/Visionatedigital/M-and-T/store"
	"github.com/Visionatedigital/M-and-T/utils"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"gorm.io/gorm"
)

const defaultLimit = 10

// StatsSource computes the portfolio headline for get_loan_statistics.
type StatsSource interface {
	Stats(ctx context.Context) (models.LoanStatistics, error)
}

type tool struct {
	def openai.FunctionDefinition
	run func(ctx context.Context, args string) (interface{}, error)
}

// Registry is the closed set of read-only tools the model may call.
type Registry struct {
	tools map[string]tool
	order []string
}

type listResult struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

type applicationsArgs struct {
	Status string  `json:"status" validate:"omitempty,oneof=all pending under_review approved rejected disbursed"`
	Limit  float64 `json:"limit" validate:"omitempty,min=1,max=100"`
}

type clientsArgs struct {
	Search string  `json:"search" validate:"max=100"`
	Limit  float64 `json:"limit" validate:"omitempty,min=1,max=100"`
}

type clientLoansArgs struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

func NewRegistry(db *gorm.DB, stats StatsSource) *Registry {
	apps := store.NewTable[models.LoanApplication](db)
	profiles := store.NewTable[models.Profile](db)

	r := &Registry{tools: make(map[string]tool)}

	r.add(openai.FunctionDefinition{
		Name:        "query_loan_applications",
		Description: "List loan applications, newest first. Filter by exact status or use all.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"status": {
					Type:        jsonschema.String,
					Enum:        []string{"all", "pending", "under_review", "approved", "rejected", "disbursed"},
					Description: "Application status to match",
				},
				"limit": {Type: jsonschema.Integer, Description: "Maximum number of rows, 10 when omitted"},
			},
		},
	}, func(ctx context.Context, raw string) (interface{}, error) {
		var args applicationsArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		f := store.Filter{}.Newest("created_at").Take(limitOrDefault(args.Limit))
		if args.Status != "" && args.Status != "all" {
			f = f.And(store.Eq("status", args.Status))
		}
		rows, err := apps.Select(ctx, f)
		if err != nil {
			return nil, err
		}
		return listResult{Data: rows, Count: len(rows)}, nil
	})

	r.add(openai.FunctionDefinition{
		Name:        "query_clients",
		Description: "Look up client profiles by a case-insensitive fragment of their name.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"search": {Type: jsonschema.String, Description: "Part of the client's name"},
				"limit":  {Type: jsonschema.Integer, Description: "Maximum number of rows, 10 when omitted"},
			},
		},
	}, func(ctx context.Context, raw string) (interface{}, error) {
		var args clientsArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		f := store.Filter{}.Newest("created_at").Take(limitOrDefault(args.Limit))
		if term := strings.TrimSpace(args.Search); term != "" {
			f = f.And(store.Search(term, "full_name"))
		}
		rows, err := profiles.Select(ctx, f)
		if err != nil {
			return nil, err
		}
		return listResult{Data: rows, Count: len(rows)}, nil
	})

	r.add(openai.FunctionDefinition{
		Name:        "get_loan_statistics",
		Description: "Portfolio totals: applications, approved and rejected counts, amount approved, currency.",
		Parameters: jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: map[string]jsonschema.Definition{},
		},
	}, func(ctx context.Context, raw string) (interface{}, error) {
		return stats.Stats(ctx)
	})

	r.add(openai.FunctionDefinition{
		Name:        "query_client_loans",
		Description: "Every loan application of one client, newest first.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"user_id": {Type: jsonschema.String, Description: "The client's UUID"},
			},
			Required: []string{"user_id"},
		},
	}, func(ctx context.Context, raw string) (interface{}, error) {
		var args clientLoansArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		rows, err := apps.Select(ctx, store.Where(store.Eq("user_id", uuid.MustParse(args.UserID))).Newest("created_at"))
		if err != nil {
			return nil, err
		}
		return listResult{Data: rows, Count: len(rows)}, nil
	})

	return r
}

func (r *Registry) add(def openai.FunctionDefinition, run func(ctx context.Context, args string) (interface{}, error)) {
	r.tools[def.Name] = tool{def: def, run: run}
	r.order = append(r.order, def.Name)
}

// Definitions lists the tools in the form the completion service expects.
func (r *Registry) Definitions() []openai.Tool {
	defs := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name].def
		defs = append(defs, openai.Tool{Type: openai.ToolTypeFunction, Function: &def})
	}
	return defs
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Call runs the named tool and returns its JSON result. Only an unknown
// name is an error; bad arguments and store failures come back as
// {"error": "..."} for the model to read.
func (r *Registry) Call(ctx context.Context, name, args string) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("tool %q: %w", name, apperr.ErrUnknownTool)
	}

	log.Printf("Executing tool %s with %s", name, args)
	result, err := t.run(ctx, args)
	if err != nil {
		log.Printf("Tool %s failed: %v", name, err)
		result = map[string]string{"error": err.Error()}
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", name, err)
	}
	return string(out), nil
}

func decodeArgs(raw string, v interface{}) error {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("malformed arguments: %w", apperr.ErrInvalidArgument)
	}
	if err := utils.ValidateStruct(v); err != nil {
		return fmt.Errorf("invalid arguments %v: %w", utils.FormatValidationError(err), apperr.ErrInvalidArgument)
	}
	return nil
}

// limitOrDefault accepts the limit as the model sends it, a JSON number.
func limitOrDefault(n float64) int {
	if n < 1 {
		return defaultLimit
	}
	return int(n)
}
