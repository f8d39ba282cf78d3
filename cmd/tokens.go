package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/tokenmgmt/filter"
	"github.com/s0up4200/tokenmgmt/models"
)

var (
	filterExpr     string
	preset         string
	locationID     int64
	servicePointID int64
	categoryID     int64
	tokenStatus    int64
	page           int
	pageLength     int
	params         []string
	fields         []string
)

// tokensCmd groups the token lifecycle commands
var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"token"},
	Short:   "Issue, call, skip and complete queue tokens",
}

var tokensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tokens",
	Long: `List tokens, optionally narrowed by server-side query parameters and a
client-side filter expression, e.g.

  tokenmgmt tokens list --location 1 --filter 'status == 0 and minutesSince(parseTime(created_at)) > 15'`,
	Args: cobra.NoArgs,
	RunE: runTokensList,
}

var tokensGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("token id", args[0])
		if err != nil {
			return err
		}
		token, err := client.Tokens().Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return newPrinter(cmd).Token(token)
	},
}

var tokensIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a new token",
	Long: `Issue a new token. Extra attributes are passed with --set, e.g.

  tokenmgmt tokens issue --location 1 --category 2 --set customer_name="Ada Lovelace"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := parseFields(fields)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("location") {
			data[models.FieldLocationID] = locationID
		}
		if cmd.Flags().Changed("category") {
			data[models.FieldCategoryID] = categoryID
		}

		token, err := client.Tokens().Issue(cmd.Context(), data)
		if err != nil {
			return err
		}

		p := newPrinter(cmd)
		if number, ok := token.TokenNumber(); ok {
			p.Success("Issued token %s", number)
		}
		return p.Token(token)
	},
}

var tokensNextCmd = &cobra.Command{
	Use:   "next <location-id>",
	Short: "Show the next waiting token at a location without calling it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("location id", args[0])
		if err != nil {
			return err
		}
		next, err := client.Tokens().FindNext(cmd.Context(), id)
		if err != nil {
			return err
		}
		return newPrinter(cmd).Payload(next)
	},
}

var tokensCallNextCmd = &cobra.Command{
	Use:   "call-next",
	Short: "Call the next waiting token to a service point",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := client.Tokens().CallNext(cmd.Context(), locationID, servicePointID)
		if err != nil {
			return err
		}
		return printTransition(cmd, "Called", token)
	},
}

// transitionCmd builds the call/skip/complete commands, which share their
// arguments and only differ in the facade method
func transitionCmd(use, short, verb string, call func(ctx context.Context, tokenID, locationID, servicePointID int64) (*models.Token, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <token-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("token id", args[0])
			if err != nil {
				return err
			}
			token, err := call(cmd.Context(), id, locationID, servicePointID)
			if err != nil {
				return err
			}
			return printTransition(cmd, verb, token)
		},
	}
}

var (
	tokensCallCmd = transitionCmd("call", "Call a specific token to a service point", "Called",
		func(ctx context.Context, tokenID, locationID, servicePointID int64) (*models.Token, error) {
			return client.Tokens().CallByID(ctx, tokenID, locationID, servicePointID)
		})
	tokensSkipCmd = transitionCmd("skip", "Skip a token", "Skipped",
		func(ctx context.Context, tokenID, locationID, servicePointID int64) (*models.Token, error) {
			return client.Tokens().Skip(ctx, tokenID, locationID, servicePointID)
		})
	tokensCompleteCmd = transitionCmd("complete", "Mark a token as served", "Completed",
		func(ctx context.Context, tokenID, locationID, servicePointID int64) (*models.Token, error) {
			return client.Tokens().Complete(ctx, tokenID, locationID, servicePointID)
		})
)

var tokensServingCmd = &cobra.Command{
	Use:   "serving [location-id...]",
	Short: "Show the tokens currently being served",
	Long: `Show the tokens currently being served at one or more locations. Without
arguments the locations from watch.locations in the config are used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := locationsOrDefault(args)
		if err != nil {
			return err
		}

		results, err := servingByLocation(cmd.Context(), ids, cfg.Watch.Concurrency)
		if err != nil {
			return err
		}

		p := newPrinter(cmd)
		if p.format == "json" {
			out := make(map[string]models.Payload, len(ids))
			for i, id := range ids {
				out[fmt.Sprint(id)] = results[i]
			}
			return p.json(out)
		}

		for i, id := range ids {
			fmt.Fprintln(p.w, headerStyle.Render(fmt.Sprintf("Location %d", id)))
			if err := p.Payload(results[i]); err != nil {
				return err
			}
		}
		return nil
	},
}

var tokensUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("token id", args[0])
		if err != nil {
			return err
		}
		data, err := parseFields(fields)
		if err != nil {
			return err
		}
		token, err := client.Tokens().Update(cmd.Context(), id, data)
		if err != nil {
			return err
		}
		return newPrinter(cmd).Token(token)
	},
}

var tokensDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("token id", args[0])
		if err != nil {
			return err
		}
		body, err := client.Tokens().Delete(cmd.Context(), id)
		if err != nil {
			return err
		}
		p := newPrinter(cmd)
		p.Success("Deleted token %d", id)
		if p.format == "json" {
			return p.Payload(body)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.AddCommand(
		tokensListCmd,
		tokensGetCmd,
		tokensIssueCmd,
		tokensNextCmd,
		tokensCallNextCmd,
		tokensCallCmd,
		tokensSkipCmd,
		tokensCompleteCmd,
		tokensServingCmd,
		tokensUpdateCmd,
		tokensDeleteCmd,
	)

	list := tokensListCmd.Flags()
	list.Int64Var(&locationID, "location", 0, "only tokens of this location")
	list.Int64Var(&servicePointID, "service-point", 0, "only tokens of this service point")
	list.Int64Var(&categoryID, "category", 0, "only tokens of this category")
	list.Int64Var(&tokenStatus, "status", 0, "only tokens with this status")
	list.IntVar(&page, "page", 0, "page number")
	list.IntVar(&pageLength, "page-length", 0, "page size")
	list.StringArrayVar(&params, "param", nil, "extra query parameter key=value (repeatable)")
	list.StringVarP(&filterExpr, "filter", "f", "", "client-side filter expression")
	list.StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	tokensListCmd.MarkFlagsMutuallyExclusive("filter", "preset")

	tokensIssueCmd.Flags().Int64Var(&locationID, "location", 0, "location id")
	tokensIssueCmd.Flags().Int64Var(&categoryID, "category", 0, "token category id")
	tokensIssueCmd.Flags().StringArrayVar(&fields, "set", nil, "token attribute key=value (repeatable)")

	tokensUpdateCmd.Flags().StringArrayVar(&fields, "set", nil, "attribute key=value (repeatable)")

	for _, c := range []*cobra.Command{tokensCallNextCmd, tokensCallCmd, tokensSkipCmd, tokensCompleteCmd} {
		c.Flags().Int64Var(&locationID, "location", 0, "location id")
		c.Flags().Int64Var(&servicePointID, "service-point", 0, "service point id")
		_ = c.MarkFlagRequired("location")
		_ = c.MarkFlagRequired("service-point")
	}
}

func runTokensList(cmd *cobra.Command, args []string) error {
	query, err := listQuery(cmd)
	if err != nil {
		return err
	}

	selected, err := selectFilter()
	if err != nil {
		return err
	}

	payload, err := client.Tokens().List(cmd.Context(), query)
	if err != nil {
		return err
	}

	p := newPrinter(cmd)
	if selected == nil {
		return p.Payload(payload)
	}

	recs, ok := payload.Records()
	if !ok {
		return fmt.Errorf("cannot filter response: expected a list of records")
	}

	logger.Debug().Str("filter", selected.Expression()).Int("records", len(recs)).Msg("Filtering tokens")

	matched, err := filters.Apply(cmd.Context(), selected, recs)
	if err != nil {
		return err
	}
	return p.Records(matched)
}

// listQuery builds the server-side query from the list flags
func listQuery(cmd *cobra.Command) (models.Record, error) {
	query, err := parseFields(params)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("location") {
		query[models.FieldLocationID] = locationID
	}
	if flags.Changed("service-point") {
		query[models.FieldServicePointID] = servicePointID
	}
	if flags.Changed("category") {
		query[models.FieldCategoryID] = categoryID
	}
	if flags.Changed("status") {
		query[models.FieldStatus] = tokenStatus
	}
	if flags.Changed("page") {
		query["page"] = page
	}
	if flags.Changed("page-length") {
		query["pageLength"] = pageLength
	}
	return query, nil
}

// selectFilter returns the filter chosen by --filter or --preset, or nil
func selectFilter() (filter.CompiledFilter, error) {
	if strings.TrimSpace(filterExpr) != "" {
		f, err := filters.Compile(filterExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		return f, nil
	}

	if preset != "" {
		f, ok := filters.GetFilter(strings.ToLower(preset))
		if !ok {
			return nil, fmt.Errorf("preset '%s' not found in config (available: %s)",
				preset, strings.Join(filters.ListFilters(), ", "))
		}
		return f, nil
	}

	return nil, nil
}

func printTransition(cmd *cobra.Command, verb string, token *models.Token) error {
	p := newPrinter(cmd)
	if number, ok := token.TokenNumber(); ok {
		p.Success("%s token %s", verb, number)
	}
	return p.Token(token)
}

// locationsOrDefault parses location ids from args, falling back to the
// configured watch locations
func locationsOrDefault(args []string) ([]int64, error) {
	if len(args) > 0 {
		return parseIDs("location id", args)
	}
	if len(cfg.Watch.Locations) == 0 {
		return nil, fmt.Errorf("no locations given and watch.locations is not configured")
	}
	return cfg.Watch.Locations, nil
}

// servingByLocation fetches the currently served tokens of every location,
// at most limit requests at a time. Results are in the order of ids.
func servingByLocation(ctx context.Context, ids []int64, limit int) ([]models.Payload, error) {
	results := make([]models.Payload, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))

	for i, id := range ids {
		g.Go(func() error {
			payload, err := client.Tokens().CurrentlyServing(ctx, id)
			if err != nil {
				return fmt.Errorf("location %d: %w", id, err)
			}
			results[i] = payload
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
