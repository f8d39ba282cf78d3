package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/s0up4200/tokenmgmt/models"
)

// crudResource is the common surface of the locations, service points,
// token categories, displays and clients facades
type crudResource interface {
	List(ctx context.Context, filters models.Record) (models.Payload, error)
	Get(ctx context.Context, id int64) (models.Payload, error)
	Create(ctx context.Context, data models.Record) (models.Payload, error)
	Update(ctx context.Context, id int64, data models.Record) (models.Payload, error)
	Delete(ctx context.Context, id int64) (models.Payload, error)
}

// resourceCmd builds list/get/create/update/delete subcommands for a
// resource. The facade is resolved at run time since the client only
// exists after initializeApp.
func resourceCmd(use string, aliases []string, noun string, resource func() crudResource) *cobra.Command {
	var (
		query []string
		data  []string
	)

	parent := &cobra.Command{
		Use:     use,
		Aliases: aliases,
		Short:   "Manage " + use,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List " + use,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFields(query)
			if err != nil {
				return err
			}
			payload, err := resource().List(cmd.Context(), filters)
			if err != nil {
				return err
			}
			return newPrinter(cmd).Payload(payload)
		},
	}
	list.Flags().StringArrayVar(&query, "param", nil, "query parameter key=value (repeatable)")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(noun+" id", args[0])
			if err != nil {
				return err
			}
			payload, err := resource().Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return newPrinter(cmd).Payload(payload)
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a " + noun,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseFields(data)
			if err != nil {
				return err
			}
			payload, err := resource().Create(cmd.Context(), rec)
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			p.Success("Created %s", noun)
			return p.Payload(payload)
		},
	}
	create.Flags().StringArrayVar(&data, "set", nil, "attribute key=value (repeatable)")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(noun+" id", args[0])
			if err != nil {
				return err
			}
			rec, err := parseFields(data)
			if err != nil {
				return err
			}
			payload, err := resource().Update(cmd.Context(), id, rec)
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			p.Success("Updated %s %d", noun, id)
			return p.Payload(payload)
		},
	}
	update.Flags().StringArrayVar(&data, "set", nil, "attribute key=value (repeatable)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(noun+" id", args[0])
			if err != nil {
				return err
			}
			payload, err := resource().Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			p.Success("Deleted %s %d", noun, id)
			if p.format == "json" {
				return p.Payload(payload)
			}
			return nil
		},
	}

	parent.AddCommand(list, get, create, update, del)
	return parent
}

var displayDataCmd = &cobra.Command{
	Use:   "data <display-id>",
	Short: "Show what a display screen is currently showing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("display id", args[0])
		if err != nil {
			return err
		}
		payload, err := client.Displays().Data(cmd.Context(), id)
		if err != nil {
			return err
		}
		return newPrinter(cmd).Payload(payload)
	},
}

func init() {
	displays := resourceCmd("displays", []string{"display"}, "display",
		func() crudResource { return client.Displays() })
	displays.AddCommand(displayDataCmd)

	rootCmd.AddCommand(
		resourceCmd("locations", []string{"location"}, "location",
			func() crudResource { return client.Locations() }),
		resourceCmd("service-points", []string{"service-point", "sp"}, "service point",
			func() crudResource { return client.ServicePoints() }),
		resourceCmd("categories", []string{"category", "token-categories"}, "token category",
			func() crudResource { return client.TokenCategories() }),
		displays,
		resourceCmd("clients", []string{"client"}, "client",
			func() crudResource { return client.Clients() }),
	)
}
