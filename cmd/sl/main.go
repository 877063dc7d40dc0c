package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"subline/internal/app"
	"subline/internal/config"
	"subline/internal/db"
	"subline/internal/domain"
	"subline/internal/events"
	"subline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "sl",
	Short: "Subline CLI",
	Long: `Subline manages submissions as an append-only event log.
Every change is an event: validated against the current state, projected
into the next state, and persisted. State is always reproducible by
replaying the log.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SUBLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("submitter", "local-user", "submitter identifier")
	rootCmd.PersistentFlags().StringSlice("endorsements", nil, "category endorsements of the submitter")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("submitter", rootCmd.PersistentFlags().Lookup("submitter"))
	_ = viper.BindPFlag("endorsements", rootCmd.PersistentFlags().Lookup("endorsements"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(setCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(confirmCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(finalizeCmd())
	rootCmd.AddCommand(unfinalizeCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(removeCmd())
	rootCmd.AddCommand(requestCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(compilationsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func submitter() domain.Agent {
	return domain.Agent{
		Type:         domain.AgentUser,
		NativeID:     viper.GetString("submitter"),
		Endorsements: viper.GetStringSlice("endorsements"),
	}
}

func withApp(ctx context.Context, fn func(context.Context, *app.Context) error) error {
	a, closeDB, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer closeDB()
	return fn(ctx, a)
}

// save applies the payloads as events of the current submitter and prints
// the resulting state.
func save(ctx context.Context, a *app.Context, submissionID int64, payloads ...events.Data) error {
	evs := make([]*events.Event, 0, len(payloads))
	for _, d := range payloads {
		evs = append(evs, events.New(submitter(), time.Time{}, d))
	}
	state, _, err := a.Engine.Save(ctx, submissionID, evs...)
	if err != nil {
		return err
	}
	return printJSONOrSummary(state)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid submission id %q", arg)
	}
	return id, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return save(ctx, a, 0, &events.CreateSubmission{})
			})
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				rows, err := a.Engine.Repo.ListSubmissions(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Status", "Title", "Owner", "Updated"})
				for _, r := range rows {
					tw.AppendRow(table.Row{r.SubmissionID, r.Status, r.Title, r.OwnerID, r.UpdatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func showCmd() *cobra.Command {
	var replay bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show submission state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				var state *domain.Submission
				if replay {
					state, _, err = a.Engine.Load(ctx, id)
				} else {
					state, err = a.Engine.LoadFast(ctx, id)
				}
				if err != nil {
					return err
				}
				return printJSON(state)
			})
		},
	}
	cmd.Flags().BoolVar(&replay, "replay", false, "reconstruct state from the event log instead of the materialized state")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the event history of a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				_, evs, err := a.Engine.Load(ctx, id)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Created", "Type", "Creator", "Event ID"})
				for _, e := range evs {
					tw.AppendRow(table.Row{
						e.Created.Format(time.RFC3339),
						e.Data.Type(),
						e.Creator.NativeID,
						e.ID,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func setCmd() *cobra.Command {
	set := &cobra.Command{Use: "set", Short: "Set submission metadata"}
	set.AddCommand(oneArgEvent("title <id> <title>", "Set the title", func(v string) events.Data {
		return events.NewSetTitle(v)
	}))
	set.AddCommand(oneArgEvent("abstract <id> <abstract>", "Set the abstract", func(v string) events.Data {
		return events.NewSetAbstract(v)
	}))
	set.AddCommand(oneArgEvent("comments <id> <comments>", "Set the comments", func(v string) events.Data {
		return events.NewSetComments(v)
	}))
	set.AddCommand(oneArgEvent("doi <id> <doi>", "Set the DOI", func(v string) events.Data {
		return events.NewSetDOI(v)
	}))
	set.AddCommand(oneArgEvent("msc <id> <classes>", "Set the MSC classification", func(v string) events.Data {
		return events.NewSetMSCClassification(v)
	}))
	set.AddCommand(oneArgEvent("acm <id> <classes>", "Set the ACM classification", func(v string) events.Data {
		return events.NewSetACMClassification(v)
	}))
	set.AddCommand(oneArgEvent("journal-ref <id> <ref>", "Set the journal reference", func(v string) events.Data {
		return &events.SetJournalReference{JournalRef: v}
	}))
	set.AddCommand(oneArgEvent("report-num <id> <number>", "Set the report number", func(v string) events.Data {
		return events.NewSetReportNumber(v)
	}))
	set.AddCommand(oneArgEvent("authors <id> <display>", "Set the author display string", func(v string) events.Data {
		return events.NewSetAuthors(nil, v)
	}))
	set.AddCommand(setLicenseCmd())
	return set
}

// oneArgEvent builds a subcommand taking a submission id and one value.
func oneArgEvent(use, short string, build func(string) events.Data) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return save(ctx, a, id, build(args[1]))
			})
		},
	}
}

func setLicenseCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "license <id> <uri>",
		Short: "Set the license",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return save(ctx, a, id, &events.SetLicense{LicenseName: name, LicenseURI: args[1]})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "license display name")
	return cmd
}

func classifyCmd() *cobra.Command {
	c := &cobra.Command{Use: "classify", Short: "Manage classifications"}
	c.AddCommand(oneArgEvent("primary <id> <category>", "Set the primary classification", func(v string) events.Data {
		return &events.SetPrimaryClassification{Category: v}
	}))
	c.AddCommand(oneArgEvent("add <id> <category>", "Add a secondary classification", func(v string) events.Data {
		return &events.AddSecondaryClassification{Category: v}
	}))
	c.AddCommand(oneArgEvent("remove <id> <category>", "Remove a secondary classification", func(v string) events.Data {
		return &events.RemoveSecondaryClassification{Category: v}
	}))
	return c
}

func confirmCmd() *cobra.Command {
	c := &cobra.Command{Use: "confirm", Short: "Record submitter confirmations"}
	c.AddCommand(noArgEvent("contact <id>", "Confirm contact information", func() events.Data {
		return &events.ConfirmContactInformation{}
	}))
	c.AddCommand(noArgEvent("policy <id>", "Accept the submission policy", func() events.Data {
		return &events.ConfirmPolicy{}
	}))
	var isAuthor bool
	authorship := &cobra.Command{
		Use:   "authorship <id>",
		Short: "Confirm authorship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return save(ctx, a, id, &events.ConfirmAuthorship{SubmitterIsAuthor: isAuthor})
			})
		},
	}
	authorship.Flags().BoolVar(&isAuthor, "is-author", true, "submitter is an author of the work")
	c.AddCommand(authorship)
	c.AddCommand(noArgEvent("preview <id>", "Confirm the compiled preview", func() events.Data {
		return &events.ConfirmPreview{}
	}))
	return c
}

func noArgEvent(use, short string, build func() events.Data) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return save(ctx, a, id, build())
			})
		},
	}
}

func uploadCmd() *cobra.Command {
	up := &cobra.Command{Use: "upload", Short: "Manage the source package"}

	var (
		checksum     string
		format       string
		uncompressed int64
		compressed   int64
	)
	set := &cobra.Command{
		Use:   "set <id> <upload-id>",
		Short: "Attach an uploaded source package",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return save(ctx, a, id, &events.SetUploadPackage{
					Identifier:       args[1],
					Checksum:         checksum,
					Format:           domain.SourceFormat(format),
					UncompressedSize: uncompressed,
					CompressedSize:   compressed,
				})
			})
		},
	}
	set.Flags().StringVar(&checksum, "checksum", "", "content checksum")
	set.Flags().StringVar(&format, "format", "", "source format (tex, ps, html, pdftex)")
	set.Flags().Int64Var(&uncompressed, "uncompressed-size", 0, "uncompressed size in bytes")
	set.Flags().Int64Var(&compressed, "compressed-size", 0, "compressed size in bytes")
	up.AddCommand(set)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the attached source package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return save(ctx, a, id, &events.UpdateUploadPackage{
					Checksum:         checksum,
					Format:           domain.SourceFormat(format),
					UncompressedSize: uncompressed,
					CompressedSize:   compressed,
				})
			})
		},
	}
	update.Flags().StringVar(&checksum, "checksum", "", "content checksum")
	update.Flags().StringVar(&format, "format", "", "source format (tex, ps, html, pdftex)")
	update.Flags().Int64Var(&uncompressed, "uncompressed-size", 0, "uncompressed size in bytes")
	update.Flags().Int64Var(&compressed, "compressed-size", 0, "compressed size in bytes")
	up.AddCommand(update)

	up.AddCommand(noArgEvent("unset <id>", "Detach the source package", func() events.Data {
		return &events.UnsetUploadPackage{}
	}))
	return up
}

func finalizeCmd() *cobra.Command {
	return noArgEvent("finalize <id>", "Declare the submission ready for announcement", func() events.Data {
		return &events.FinalizeSubmission{}
	})
}

func unfinalizeCmd() *cobra.Command {
	return noArgEvent("unfinalize <id>", "Pull the submission back from the announcement queue", func() events.Data {
		return &events.UnFinalizeSubmission{}
	})
}

func publishCmd() *cobra.Command {
	return oneArgEvent("publish <id> <paper-id>", "Announce the submission", func(v string) events.Data {
		return &events.Publish{PaperID: v}
	})
}

func removeCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a submission from the workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return save(ctx, a, id, &events.RemoveSubmission{Reason: reason})
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "removal reason")
	return cmd
}

func requestCmd() *cobra.Command {
	r := &cobra.Command{Use: "request", Short: "Manage user requests"}
	r.AddCommand(oneArgEvent("withdraw <id> <reason>", "Request withdrawal of a published submission", func(v string) events.Data {
		return &events.RequestWithdrawal{Reason: v}
	}))
	var categories []string
	cross := &cobra.Command{
		Use:   "cross <id>",
		Short: "Request cross-list categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return save(ctx, a, id, &events.RequestCrossList{Categories: categories})
			})
		},
	}
	cross.Flags().StringSliceVar(&categories, "category", nil, "category to cross-list (repeatable)")
	r.AddCommand(cross)
	r.AddCommand(oneArgEvent("approve <id> <request-id>", "Approve a pending request", func(v string) events.Data {
		return &events.ApproveRequest{RequestID: v}
	}))
	r.AddCommand(oneArgEvent("reject <id> <request-id>", "Reject a pending request", func(v string) events.Data {
		return &events.RejectRequest{RequestID: v}
	}))
	r.AddCommand(oneArgEvent("apply <id> <request-id>", "Apply an approved request", func(v string) events.Data {
		return &events.ApplyRequest{RequestID: v}
	}))
	return r
}

func processCmd() *cobra.Command {
	p := &cobra.Command{Use: "process", Short: "Record external process status"}
	var (
		process string
		service string
		version string
		reason  string
	)
	add := &cobra.Command{
		Use:   "add <id> <status> <identifier>",
		Short: "Append one process status observation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				return save(ctx, a, id, &events.AddProcessStatus{
					Process:    domain.Process(process),
					Status:     domain.ProcessState(args[1]),
					Identifier: args[2],
					Service:    service,
					Version:    version,
					Reason:     reason,
				})
			})
		},
	}
	add.Flags().StringVar(&process, "process", string(domain.ProcessCompilation), "process kind")
	add.Flags().StringVar(&service, "service", "", "reporting service")
	add.Flags().StringVar(&version, "version", "", "reporting service version")
	add.Flags().StringVar(&reason, "reason", "", "status reason")
	p.AddCommand(add)
	return p
}

func compilationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compilations <id>",
		Short: "Show compilation attempts derived from the process log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				state, _, err := a.Engine.Load(ctx, id)
				if err != nil {
					return err
				}
				all := state.Compilations()
				if viper.GetBool("json") {
					return printJSON(all)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Source", "Checksum", "Format", "Status", "Started", "Ended"})
				for _, c := range all {
					ended := ""
					if c.EndTime != nil {
						ended = c.EndTime.Format(time.RFC3339)
					}
					tw.AppendRow(table.Row{
						c.SourceID, c.Checksum, c.OutputFormat, c.Status,
						c.StartTime.Format(time.RFC3339), ended,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func configCmd() *cobra.Command {
	c := &cobra.Command{Use: "config", Short: "Manage workspace configuration"}
	c.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default subline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			return os.WriteFile(path, []byte(config.GenerateDefault()), 0o644)
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	})
	return c
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Context) error {
				secret := a.Config.Server.JWTSecret
				if secret == "" {
					secret = os.Getenv("SUBLINE_JWT_SECRET")
				}
				if secret == "" {
					return fmt.Errorf("SUBLINE_JWT_SECRET is required for bearer auth")
				}
				if addr == "" {
					addr = a.Config.Server.Addr
				}
				if basePath == "" {
					basePath = a.Config.Server.BasePath
				}
				handler, err := server.New(server.Config{
					Engine:   a.Engine,
					BasePath: basePath,
					Auth:     server.AuthConfig{JWTSecret: secret},
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Subline API on http://%s%s\n", addr, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path")
	return cmd
}

// --- output helpers ---

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printJSONOrSummary(s *domain.Submission) error {
	if viper.GetBool("json") {
		return printJSON(s)
	}
	fmt.Printf("submission %d: %s", s.SubmissionID, s.Status)
	if s.Metadata.Title != "" {
		fmt.Printf(" %q", s.Metadata.Title)
	}
	if s.IsOnHold() {
		fmt.Printf(" (on hold)")
	}
	fmt.Println()
	return nil
}
