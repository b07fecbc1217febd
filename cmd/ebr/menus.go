package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/validate"
)

var menuImage string

// loadImage reads the picture given with --image, if any.
func loadImage() (*backend.Image, error) {
	if menuImage == "" {
		return nil, nil
	}
	b, err := os.ReadFile(menuImage)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return backend.NewImage(filepath.Base(menuImage), b)
}

var menusCmd = &cobra.Command{
	Use:     "menus",
	Aliases: []string{"menu"},
	Short:   "Manage the menus and packs of the active company",
}

var menusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List menus",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			list, err := op.work.Menus(ctx, listPage)
			if err != nil {
				return err
			}
			tw := op.table()
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tACTIVE\t")
			for _, m := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", m.ID, m.Nom, m.Categorie, money(m.Prix), yesNo(m.Status == 1))
			}
			return tw.Flush()
		})
	},
}

var menuForm validate.MenuForm

var menusAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a drink or a meal",
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := loadImage()
		if err != nil {
			return err
		}
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			form := menuForm
			if err := op.ask(&form.Name, "Name"); err != nil {
				return err
			}
			m, err := op.work.CreateMenu(ctx, form, img)
			if err != nil {
				return err
			}
			fmt.Fprintf(op.out, "created %s (#%d) at %s\n", m.Nom, m.ID, money(m.Prix))
			return nil
		})
	},
}

var packForm validate.PackForm

var menusPackCmd = &cobra.Command{
	Use:   "pack",
	Short: "Group menus into a pack",
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := loadImage()
		if err != nil {
			return err
		}
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			form := packForm
			if err := op.ask(&form.Name, "Pack name"); err != nil {
				return err
			}
			m, err := op.work.CreatePack(ctx, form, img)
			if err != nil {
				return err
			}
			fmt.Fprintf(op.out, "created pack %s (#%d) at %s\n", m.Nom, m.ID, money(m.Prix))
			return nil
		})
	},
}

var menusShowCmd = &cobra.Command{
	Use:   "show <pack id>",
	Short: "Show a pack and its menus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			p, err := op.work.PackDetails(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(op.out, "%s (#%d) %s\n", p.Nom, p.ID, money(p.Prix))
			if p.Description != "" {
				fmt.Fprintln(op.out, p.Description)
			}
			tw := op.table()
			for _, m := range p.Menus {
				fmt.Fprintf(tw, "  #%d\t%s\t%s\t\n", m.ID, m.Nom, m.Categorie)
			}
			return tw.Flush()
		})
	},
}

// menuAction builds a command applying fn to one menu id.
func menuAction(use, short, done string, fn func(ctx context.Context, op *operator, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withOperator(cmd, func(ctx context.Context, op *operator) error {
				if err := fn(ctx, op, id); err != nil {
					return err
				}
				fmt.Fprintf(op.out, "menu #%d %s\n", id, done)
				return nil
			})
		},
	}
}

func init() {
	addPageFlags(menusListCmd)

	f := menusAddCmd.Flags()
	f.StringVar(&menuForm.Name, "name", "", "menu name")
	f.Float64Var(&menuForm.Price, "price", 0, "price in FCFA")
	f.StringVar(&menuForm.Category, "category", validate.CategoryMeals, "boissons or repas")
	f.StringVar(&menuForm.Description, "description", "", "description")
	f.StringVar(&menuImage, "image", "", "picture file")

	f = menusPackCmd.Flags()
	f.StringVar(&packForm.Name, "name", "", "pack name")
	f.Float64Var(&packForm.Price, "price", 0, "price in FCFA")
	f.StringVar(&packForm.Description, "description", "", "description")
	f.Int64SliceVar(&packForm.MenuIDs, "menu", nil, "menu ids in the pack (repeatable)")
	f.StringVar(&menuImage, "image", "", "picture file")

	menusCmd.AddCommand(
		menusListCmd, menusAddCmd, menusPackCmd, menusShowCmd,
		menuAction("activate", "Make a menu available for ordering", "activated",
			func(ctx context.Context, op *operator, id int64) error { return op.work.SetMenuActive(ctx, id, true) }),
		menuAction("deactivate", "Hide a menu from ordering", "deactivated",
			func(ctx context.Context, op *operator, id int64) error { return op.work.SetMenuActive(ctx, id, false) }),
		menuAction("delete", "Delete a menu", "deleted",
			func(ctx context.Context, op *operator, id int64) error { return op.work.DeleteMenu(ctx, id) }),
	)
	rootCmd.AddCommand(menusCmd)
}
