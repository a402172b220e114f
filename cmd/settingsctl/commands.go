package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

type rootOptions struct {
	configPath string
	actor      string
	out        io.Writer
	errOut     io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:          "settingsctl",
		Short:        "Inspect and edit a dot-path settings store",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./settingsctl.{yaml,toml,json})")
	root.PersistentFlags().StringVar(&opts.actor, "actor", "", "actor id recorded on change events")

	root.AddCommand(
		getCmd(opts),
		setCmd(opts),
		hasCmd(opts),
		removeCmd(opts),
		resetCmd(opts),
		describeCmd(opts),
		exportCmd(opts),
		importCmd(opts),
		backupCmd(opts),
		restoreCmd(opts),
		backupsCmd(opts),
		deleteBackupCmd(opts),
		defaultsCmd(opts),
		flushCmd(opts),
	)
	return root
}

// run opens the app, invokes fn and closes the app, joining close errors
// into the returned error.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.actor != "" {
		ctx = activity.WithActor(ctx, activity.Actor{ActorID: o.actor})
	}
	a, err := newApp(ctx, o.configPath, o.out, o.errOut)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(ctx, a)
}

func getCmd(o *rootOptions) *cobra.Command {
	var def string
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print the value stored at path as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				var fallback any
				if def != "" {
					fallback = parseValue(def)
				}
				return writeJSON(a.out, a.store.Get(ctx, args[0], fallback))
			})
		},
	}
	cmd.Flags().StringVar(&def, "default", "", "value printed when the path is missing")
	return cmd
}

func setCmd(o *rootOptions) *cobra.Command {
	var validate, sanitize string
	cmd := &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Store a value; JSON literals are decoded, anything else is a string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				var setOpts []settings.SetOption
				if sanitize != "" {
					setOpts = append(setOpts, settings.WithSanitize(sanitize))
				}
				if validate != "" {
					setOpts = append(setOpts, settings.WithValidate(validate))
				}
				return a.store.Set(ctx, args[0], parseValue(args[1]), setOpts...)
			})
		},
	}
	cmd.Flags().StringVar(&validate, "validate", "", "validator rule the value must pass")
	cmd.Flags().StringVar(&sanitize, "sanitize", "", "sanitizer rule applied before validation")
	return cmd
}

func hasCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "has <path>",
		Short: "Report whether path exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				_, err := fmt.Fprintln(a.out, a.store.Has(ctx, args[0]))
				return err
			})
		},
	}
}

func removeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>",
		Short: "Delete the value stored at path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				return a.store.Remove(ctx, args[0])
			})
		},
	}
}

func resetCmd(o *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset [path]",
		Short: "Restore path, or everything with --all, from registered defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("pass either a path or --all")
			}
			return o.run(cmd, func(ctx context.Context, a *app) error {
				if all {
					return a.store.ResetAll(ctx)
				}
				return a.store.Reset(ctx, args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "replace the whole tree with the defaults registry")
	return cmd
}

func describeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "List every stored leaf with its type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				fields, err := a.store.Describe(ctx)
				if err != nil {
					return err
				}
				for _, field := range fields {
					marker := ""
					if field.Default {
						marker = " (default registered)"
					}
					if _, err := fmt.Fprintf(a.out, "%s\t%s%s\n", field.Path, field.Type, marker); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func exportCmd(o *rootOptions) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export [group]",
		Short: "Write the tree, or one group, as a portable document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				codec, err := exportCodec(firstNonEmpty(format, a.cfg.Export.Format))
				if err != nil {
					return err
				}
				group := ""
				if len(args) == 1 {
					group = args[0]
				}
				doc, err := a.store.Export(ctx, group, settings.WithFormat(codec))
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = a.out.Write(doc)
					return err
				}
				return os.WriteFile(output, doc, 0o644)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json, yaml, toml or cbor (default from export.format)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func importCmd(o *rootOptions) *cobra.Command {
	var format string
	var merge bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Apply an exported document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return o.run(cmd, func(ctx context.Context, a *app) error {
				codec, err := settings.CodecFor(firstNonEmpty(format, a.cfg.Export.Format))
				if err != nil {
					return err
				}
				result, err := a.store.Import(ctx, data, merge, settings.WithFormat(codec))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(a.out, "%s (%d keys)\n", result.Message, result.Keys)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json, yaml, toml or cbor (default from export.format)")
	cmd.Flags().BoolVar(&merge, "merge", false, "merge into the existing tree instead of replacing it")
	return cmd
}

func backupCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <name>",
		Short: "Snapshot the current tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				info, err := a.store.Backup(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(a.out, "%s\t%s\t%d entries\n", info.Name, info.ID, info.Entries)
				return err
			})
		},
	}
}

func restoreCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Replace the tree with a backup snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				return a.store.Restore(ctx, args[0])
			})
		},
	}
}

func backupsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backup snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				infos, listErr := a.store.ListBackups(ctx)
				for _, info := range infos {
					if _, err := fmt.Fprintf(a.out, "%s\t%s\t%d entries\n", info.Name, info.CreatedAt.Format(time.RFC3339), info.Entries); err != nil {
						return err
					}
				}
				return listErr
			})
		},
	}
}

func deleteBackupCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-backup <name>",
		Short: "Delete a backup snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				return a.store.DeleteBackup(ctx, args[0])
			})
		},
	}
}

func defaultsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults <group> [file]",
		Short: "Print the defaults of group, or register them from a JSON file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var values map[string]any
			if len(args) == 2 {
				data, err := readInput(cmd.InOrStdin(), args[1])
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &values); err != nil {
					return fmt.Errorf("defaults file: %w", err)
				}
			}
			return o.run(cmd, func(ctx context.Context, a *app) error {
				if values != nil {
					return a.store.RegisterDefaults(ctx, args[0], values)
				}
				defaults, err := a.store.Defaults(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(a.out, defaults)
			})
		},
	}
}

func flushCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Drop cached values so the next read goes to storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app) error {
				a.store.Flush()
				a.logger.InfoContext(ctx, "cache flushed", "store", a.store.Name())
				return nil
			})
		},
	}
}

// parseValue decodes JSON literals and keeps anything else as a string.
func parseValue(raw string) any {
	if !gjson.Valid(raw) {
		return raw
	}
	decoded, err := settings.JSONCodec().Unmarshal([]byte(raw))
	if err != nil {
		return raw
	}
	return decoded
}

func writeJSON(w io.Writer, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = w.Write(pretty.Pretty(data))
	return err
}

func exportCodec(format string) (settings.Codec, error) {
	if strings.EqualFold(strings.TrimSpace(format), settings.FormatJSON) {
		return settings.PrettyJSONCodec(), nil
	}
	return settings.CodecFor(format)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
