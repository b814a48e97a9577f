package main

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/scanner"
	"bookshelf/internal/services"
)

type rehashFlags struct {
	force  bool
	verify bool
}

func newRehashCommand(ctx *commandContext) *cobra.Command {
	var flags rehashFlags
	cmd := &cobra.Command{
		Use:   "rehash <dir>",
		Short: "Write or check " + contenthash.SidecarExt + " hash sidecars",
		Long: `Compute the SHA-256 of every audiobook below a directory and store it in a
sidecar next to the file. Existing sidecars are kept unless --force is given.
--verify compares existing sidecars with the file contents instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(args[0], "directory")
			if err != nil {
				return err
			}
			layout, err := scanner.Walk(cmd.Context(), dir)
			if err != nil {
				return err
			}
			if len(layout.Books) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No .m4b files found.")
				return nil
			}
			if flags.verify {
				return verifySidecars(cmd, layout.Books)
			}
			return ctx.rehash(cmd, layout.Books, flags.force)
		},
	}
	cmd.Flags().BoolVar(&flags.force, "force", false, "Recompute sidecars that already exist")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "Check existing sidecars instead of writing")
	cmd.MarkFlagsMutuallyExclusive("force", "verify")
	return cmd
}

func (c *commandContext) rehash(cmd *cobra.Command, books []string, force bool) error {
	var (
		mu       sync.Mutex
		written  int
		skipped  int
		progress = newProgressLine(cmd.ErrOrStderr(), c.quiet)
	)
	group, gctx := errgroup.WithContext(cmd.Context())
	group.SetLimit(runtime.NumCPU())
	for _, path := range books {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !force {
				if _, ok, err := contenthash.ReadSidecar(path); err == nil && ok {
					mu.Lock()
					skipped++
					mu.Unlock()
					return nil
				}
			}
			if _, err := contenthash.Refresh(path); err != nil {
				return err
			}
			mu.Lock()
			written++
			progress.update("Hashed", path)
			mu.Unlock()
			return nil
		})
	}
	err := group.Wait()
	progress.clear()
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s, skipped %d with an existing sidecar.\n",
		plural(written, "sidecar", "sidecars"), skipped)
	return err
}

func verifySidecars(cmd *cobra.Command, books []string) error {
	out := cmd.OutOrStdout()
	matched, missing := 0, 0
	var mismatched []string
	for _, path := range books {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		match, ok, err := contenthash.Verify(path)
		switch {
		case err != nil:
			return err
		case !ok:
			missing++
		case match:
			matched++
		default:
			mismatched = append(mismatched, path)
		}
	}
	for _, path := range mismatched {
		fmt.Fprintf(out, "MISMATCH %s\n", path)
	}
	fmt.Fprintf(out, "%d verified, %d mismatched, %d without a sidecar.\n", matched, len(mismatched), missing)
	if len(mismatched) > 0 {
		return services.Wrap(services.ErrValidation, "rehash", "verify",
			fmt.Sprintf("%s do not match the file contents", plural(len(mismatched), "sidecar", "sidecars")), nil)
	}
	return nil
}
