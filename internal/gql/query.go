package gql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/schema"
	"github.com/taylordaughtry/formie/internal/service"
)

// Query registers the root query type.
func (t *Types) Query() *Entity {
	e, _ := t.reg.CreateEntity(QueryTypeName, func() *Entity {
		return &Entity{
			Kind:       schema.TypeKindObject,
			FieldsFunc: t.queryFields,
		}
	})
	return e
}

func (t *Types) queryFields() ([]*FieldDef, error) {
	forms := t.FormInterface().Name
	return []*FieldDef{
		resolved("formieForm", "Queries a single form.", named(forms), t.resolveForm,
			schema.NewInputValue("handle", "Narrows the query results based on the form’s handle.", named("String")),
			schema.NewInputValue("id", "Narrows the query results based on the form’s ID.", named("ID")),
		),
		resolved("formieForms", "Queries forms.", listOf(forms), t.resolveForms,
			schema.NewInputValue("handle", "Narrows the query results based on the forms’ handles.", listOf("String")),
			schema.NewInputValue("limit", "Limits the number of forms returned.", named("Int")),
		),
	}, nil
}

func (t *Types) resolveForm(ctx context.Context, _ any, args map[string]any) (any, error) {
	var (
		f   *form.Form
		err error
	)
	switch {
	case args["handle"] != nil:
		handle, _ := args["handle"].(string)
		f, err = t.plugin.Forms.Form(ctx, handle)
	case args["id"] != nil:
		raw := fmt.Sprint(args["id"])
		id, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return nil, fmt.Errorf("gql: formieForm: invalid id %q", raw)
		}
		f, err = t.plugin.Forms.FormByID(ctx, id)
	default:
		return nil, nil
	}
	if errors.Is(err, service.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (t *Types) resolveForms(ctx context.Context, _ any, args map[string]any) (any, error) {
	var criteria form.Criteria
	if handles, ok := args["handle"].([]any); ok {
		for _, h := range handles {
			if s, ok := h.(string); ok {
				criteria.Handles = append(criteria.Handles, s)
			}
		}
	}
	if limit, ok := args["limit"].(int); ok {
		criteria.Limit = limit
	}
	return t.plugin.Forms.Forms(ctx, criteria)
}
