package cli

import (
	"github.com/spf13/cobra"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

func newClientCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "client",
		Aliases: []string{"clients"},
		Short:   "Manage clients",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a client",
		Example: `  billingctl client add --name "Acme Corp" --email ap@acme.test --phone "+91 98765 43210"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.svc().Clients.CreateClient(cmd.Context(), clientInput(cmd))
			if err != nil {
				return err
			}
			app.printf("Created client %d: %s\n", client.ID, client.DisplayName())
			return nil
		},
	}
	clientFlags(add)
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("email")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change client details; only the given flags are updated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "client")
			if err != nil {
				return err
			}
			client, err := app.svc().Clients.UpdateClient(cmd.Context(), id, clientInput(cmd))
			if err != nil {
				return err
			}
			return app.printMarkdown(app.clientMarkdown(client))
		},
	}
	clientFlags(update)

	list := &cobra.Command{
		Use:   "list [search]",
		Short: "List clients, optionally matching a name, email or company",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				clients []*entity.Client
				err     error
			)
			if len(args) == 1 {
				clients, err = app.svc().Clients.SearchClients(cmd.Context(), args[0])
			} else {
				clients, err = app.svc().Clients.ListClients(cmd.Context())
			}
			if err != nil {
				return err
			}
			return app.printMarkdown(app.clientsMarkdown(clients))
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "client")
			if err != nil {
				return err
			}
			client, err := app.svc().Clients.GetClient(cmd.Context(), id)
			if err != nil {
				return err
			}
			return app.printMarkdown(app.clientMarkdown(client))
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client without projects or invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "client")
			if err != nil {
				return err
			}
			if err := app.svc().Clients.DeleteClient(cmd.Context(), id); err != nil {
				return err
			}
			app.printf("Deleted client %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, update, list, show, del)
	return cmd
}

func clientFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Client name")
	cmd.Flags().String("email", "", "Billing email address")
	cmd.Flags().String("phone", "", "Phone number")
	cmd.Flags().String("company", "", "Company name")
	cmd.Flags().String("address", "", "Postal address")
}

func clientInput(cmd *cobra.Command) entity.ClientInput {
	return entity.ClientInput{
		Name:    optional(cmd, "name"),
		Email:   optional(cmd, "email"),
		Phone:   optional(cmd, "phone"),
		Company: optional(cmd, "company"),
		Address: optional(cmd, "address"),
	}
}
