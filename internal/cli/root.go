// Package cli wires the shoplist command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/internal/toast"
	"github.com/fastygo/shoplist/internal/tui"
	"github.com/fastygo/shoplist/usecase/shoplist"
)

// App holds what every command needs.
type App struct {
	Open Opener
	Out  io.Writer
	Err  io.Writer
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "shoplist",
		Short:         "Keep a shopping list from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	root.AddCommand(
		newListCmd(app),
		newAddCmd(app),
		newRemoveCmd(app),
		newEditCmd(app),
		newToggleCmd(app),
		newToggleAllCmd(app),
		newTUICmd(app),
	)
	return root
}

// withController loads the list, runs fn and echoes any toast to stderr.
func (app *App) withController(ctx context.Context, fn func(*shoplist.Controller) error) error {
	ctrl, release, err := app.Open(ctx, toast.Options{})
	if err != nil {
		return err
	}
	defer release()

	err = ctrl.Load(ctx)
	if err == nil {
		err = fn(ctrl)
	}
	if msg := ctrl.Toast().Message; msg != "" {
		fmt.Fprintln(app.Err, msg)
	}
	return err
}

func newListCmd(app *App) *cobra.Command {
	var (
		filter string
		hide   bool
		desc   bool
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the list",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withController(cmd.Context(), func(ctrl *shoplist.Controller) error {
				ctrl.SetFilter(filter)
				ctrl.SetHideCompleted(hide)
				if desc {
					ctrl.SetOrder(shoplist.Descending)
				}
				fmt.Fprintln(app.Out, renderTable(ctrl.Visible()))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only show items containing this text")
	cmd.Flags().BoolVar(&hide, "hide-completed", false, "hide checked items")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort Z→A")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return app.withController(cmd.Context(), func(ctrl *shoplist.Controller) error {
				if domain.NormalizeText(text) == "" {
					return errors.New("item text must not be blank")
				}
				return ctrl.Add(cmd.Context(), text, quantity)
			})
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "how many")
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withController(cmd.Context(), func(ctrl *shoplist.Controller) error {
				item, err := resolveID(ctrl.Items(), args[0])
				if err != nil {
					return err
				}
				return ctrl.Remove(cmd.Context(), item.ID)
			})
		},
	}
}

func newEditCmd(app *App) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Change an item's text and quantity",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return app.withController(cmd.Context(), func(ctrl *shoplist.Controller) error {
				item, err := resolveID(ctrl.Items(), args[0])
				if err != nil {
					return err
				}
				if domain.NormalizeText(text) == "" {
					return errors.New("item text must not be blank")
				}
				q := item.Quantity
				if cmd.Flags().Changed("quantity") {
					q = quantity
				}
				return ctrl.Edit(cmd.Context(), item.ID, text, q)
			})
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "new quantity (default: unchanged)")
	return cmd
}

func newToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Check or uncheck an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withController(cmd.Context(), func(ctrl *shoplist.Controller) error {
				item, err := resolveID(ctrl.Items(), args[0])
				if err != nil {
					return err
				}
				return ctrl.Toggle(cmd.Context(), item.ID)
			})
		},
	}
}

func newToggleAllCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all",
		Short: "Check everything, or uncheck everything when all are checked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withController(cmd.Context(), func(ctrl *shoplist.Controller) error {
				return ctrl.ToggleAll(cmd.Context())
			})
		},
	}
}

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			relay := &tui.Relay{}
			ctrl, release, err := app.Open(cmd.Context(), toast.Options{OnChange: relay.Notify})
			if err != nil {
				return err
			}
			defer release()
			return tui.Run(cmd.Context(), ctrl, relay)
		},
	}
}

// resolveID accepts a full ID or a unique prefix of one.
func resolveID(items []domain.Item, ref string) (domain.Item, error) {
	var matches []domain.Item
	for _, item := range items {
		if item.ID == ref {
			return item, nil
		}
		if strings.HasPrefix(item.ID, ref) {
			matches = append(matches, item)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Item{}, fmt.Errorf("no item with id %q", ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Item{}, fmt.Errorf("id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func renderTable(items []domain.Item) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "", "ITEM", "QTY", "CREATED", "COMPLETED")
	for _, item := range items {
		check := "[ ]"
		if item.Completed {
			check = "[x]"
		}
		created := item.CreatedAt
		t.Row(shortID(item.ID), check, item.Text, fmt.Sprint(item.Quantity), domain.FormatDate(&created), domain.FormatDate(item.CompletedAt))
	}
	return t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
