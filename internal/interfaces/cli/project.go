package cli

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

func newProjectCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects and logged hours",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a project with either an hourly or a fixed rate",
		Example: `  billingctl project add --client 1 --name "Website" --hourly 1500
  billingctl project add --client 1 --name "Logo" --fixed 25000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := app.projectInput(cmd)
			if err != nil {
				return err
			}
			project, err := app.svc().Projects.CreateProject(cmd.Context(), in)
			if err != nil {
				return err
			}
			app.printf("Created project %d: %s (%s %s)\n", project.ID, project.Name, project.RateType(), app.money(project.Rate()))
			return nil
		},
	}
	add.Flags().Int64("client", 0, "Client id")
	add.Flags().String("name", "", "Project name")
	add.Flags().String("description", "", "Description")
	add.Flags().String("hourly", "", "Hourly rate")
	add.Flags().String("fixed", "", "Fixed price")
	_ = add.MarkFlagRequired("client")
	_ = add.MarkFlagRequired("name")
	add.MarkFlagsMutuallyExclusive("hourly", "fixed")
	add.MarkFlagsOneRequired("hourly", "fixed")

	var (
		listClient int64
		listStatus string
	)
	list := &cobra.Command{
		Use:   "list [search]",
		Short: "List projects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := port.ProjectFilter{ClientID: listClient}
			if len(args) == 1 {
				filter.Search = args[0]
			}
			if listStatus != "" {
				status, err := entity.ParseProjectStatus(listStatus)
				if err != nil {
					return err
				}
				filter.Status = status
			}
			projects, err := app.svc().Projects.ListProjects(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return app.printMarkdown(app.projectsMarkdown(projects))
		},
	}
	list.Flags().Int64Var(&listClient, "client", 0, "Only projects of this client")
	list.Flags().StringVar(&listStatus, "status", "", "Only projects in this status")

	var correct bool
	hours := &cobra.Command{
		Use:   "hours <id> <hours>",
		Short: "Log hours on an hourly project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			h, err := decimal.NewFromString(args[1])
			if err != nil {
				return entity.Invalid("hours %q is not a number", args[1])
			}
			apply := app.svc().Projects.AddHours
			if correct {
				apply = app.svc().Projects.CorrectHours
			}
			project, err := apply(cmd.Context(), id, h)
			if err != nil {
				return err
			}
			app.printf("Project %d now has %s hours (%s)\n", project.ID, project.HoursWorked, app.money(project.CalculateAmount()))
			return nil
		},
	}
	hours.Flags().BoolVar(&correct, "set", false, "Replace the logged total instead of adding to it")

	earnings := &cobra.Command{
		Use:   "earnings <id>",
		Short: "Show the billable amount of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			amount, err := app.svc().Projects.ProjectEarnings(cmd.Context(), id)
			if err != nil {
				return err
			}
			app.printf("%s\n", app.money(amount))
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project that has no invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if err := app.svc().Projects.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			app.printf("Deleted project %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, list, hours, earnings, del,
		projectTransition(app, "complete", "Mark a project completed", func(s Services) projectStep { return s.Projects.CompleteProject }),
		projectTransition(app, "pause", "Put a project on hold", func(s Services) projectStep { return s.Projects.PauseProject }),
		projectTransition(app, "resume", "Resume a paused project", func(s Services) projectStep { return s.Projects.ResumeProject }),
		projectTransition(app, "cancel", "Cancel a project", func(s Services) projectStep { return s.Projects.CancelProject }),
	)
	return cmd
}

type projectStep func(ctx context.Context, id int64) (*entity.Project, error)

// projectTransition builds a "<name> <id>" command firing one lifecycle step
func projectTransition(app *App, name, short string, step func(Services) projectStep) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			project, err := step(app.svc())(cmd.Context(), id)
			if err != nil {
				return err
			}
			app.printf("Project %d is now %s\n", project.ID, project.Status)
			return nil
		},
	}
}

func (a *App) projectInput(cmd *cobra.Command) (entity.ProjectInput, error) {
	clientID, _ := cmd.Flags().GetInt64("client")
	in := entity.ProjectInput{
		ClientID:    clientID,
		Name:        optional(cmd, "name"),
		Description: optional(cmd, "description"),
	}
	if raw := optional(cmd, "hourly"); raw != nil {
		rate, err := a.parseAmount(*raw)
		if err != nil {
			return in, entity.InvalidErr(err)
		}
		in.HourlyRate = &rate
	}
	if raw := optional(cmd, "fixed"); raw != nil {
		rate, err := a.parseAmount(*raw)
		if err != nil {
			return in, entity.InvalidErr(err)
		}
		in.FixedRate = &rate
	}
	return in, nil
}
