package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/storefront/internal/app"
	"github.com/mmeshcher/storefront/internal/catalog"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/repository"
)

// errNotFound возвращается командой get для отсутствующей сущности.
var errNotFound = errors.New("not found")

// kindOps приводит репозиторий конкретного вида к операциям над сырыми JSON-данными.
type kindOps struct {
	list   func(ctx context.Context) (any, error)
	get    func(ctx context.Context, id string) (any, bool, error)
	create func(ctx context.Context, raw []byte) (any, error)
	update func(ctx context.Context, id string, patch model.Patch) (any, error)
	remove func(ctx context.Context, id string) (any, error)
}

func opsFor[T any](repo repository.Repository[T]) kindOps {
	return kindOps{
		list: func(ctx context.Context) (any, error) {
			return repo.ListAll(ctx)
		},
		get: func(ctx context.Context, id string) (any, bool, error) {
			return repo.GetByID(ctx, id)
		},
		create: func(ctx context.Context, raw []byte) (any, error) {
			var draft T
			if err := json.Unmarshal(raw, &draft); err != nil {
				return nil, fmt.Errorf("parse draft: %w", err)
			}
			return repo.Create(ctx, draft)
		},
		update: func(ctx context.Context, id string, patch model.Patch) (any, error) {
			return repo.Update(ctx, id, patch)
		},
		remove: func(ctx context.Context, id string) (any, error) {
			return repo.DeleteByID(ctx, id)
		},
	}
}

func catalogOps(cat *catalog.Catalog, name string) (kindOps, error) {
	kind, err := app.KindByName(name)
	if err != nil {
		return kindOps{}, err
	}

	switch kind {
	case repository.KindServices:
		return opsFor(cat.Services), nil
	case repository.KindProducts:
		return opsFor(cat.Products), nil
	default:
		return opsFor(cat.Workshops), nil
	}
}

const kindsHelp = "KIND is one of services, products, talleres."

func (r *runner) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list KIND",
		Short: "List all entities of a kind",
		Long:  kindsHelp,
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			ops, err := catalogOps(r.app.Catalog, args[0])
			if err != nil {
				return err
			}
			resp, err := ops.list(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
}

func (r *runner) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KIND ID",
		Short: "Show one entity",
		Long:  kindsHelp,
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			ops, err := catalogOps(r.app.Catalog, args[0])
			if err != nil {
				return err
			}
			item, found, err := ops.get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%s %s: %w", args[0], args[1], errNotFound)
			}
			return printJSON(cmd.OutOrStdout(), item)
		}),
	}
}

func (r *runner) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "create KIND JSON",
		Short:   "Create an entity from a JSON draft",
		Long:    kindsHelp + " The backend assigns the id.",
		Example: `  storefront create products '{"name":"Esmalte Rojo","price":15000,"quantity":5}'`,
		Args:    cobra.ExactArgs(2),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			ops, err := catalogOps(r.app.Catalog, args[0])
			if err != nil {
				return err
			}
			resp, err := ops.create(cmd.Context(), []byte(args[1]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
}

func (r *runner) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "update KIND ID JSON",
		Short:   "Apply a partial update",
		Long:    kindsHelp + " Fields absent from JSON keep their values; _id never changes.",
		Example: `  storefront update products prod-0001 '{"price":17000}'`,
		Args:    cobra.ExactArgs(3),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			ops, err := catalogOps(r.app.Catalog, args[0])
			if err != nil {
				return err
			}
			var patch model.Patch
			if err := json.Unmarshal([]byte(args[2]), &patch); err != nil {
				return fmt.Errorf("parse patch: %w", err)
			}
			resp, err := ops.update(cmd.Context(), args[1], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
}

func (r *runner) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete KIND ID",
		Short: "Delete an entity",
		Long:  kindsHelp,
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			ops, err := catalogOps(r.app.Catalog, args[0])
			if err != nil {
				return err
			}
			resp, err := ops.remove(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
}
