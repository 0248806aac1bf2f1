package migration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
)

// ErrUnknownCommand is returned by CLI.Run for an unrecognised subcommand.
var ErrUnknownCommand = errors.New("unknown migrate command")

// CLI prints the snapshot schema migration state for operators.
type CLI struct {
	migrator Migrator
	output   io.Writer
}

// NewCLI creates a CLI writing to stdout.
func NewCLI(migrator Migrator) *CLI {
	return &CLI{
		migrator: migrator,
		output:   os.Stdout,
	}
}

// SetOutput sets the output writer for CLI messages
func (c *CLI) SetOutput(w io.Writer) {
	c.output = w
}

// Run dispatches one migrate subcommand. goto and force take the target
// version as their first positional argument.
func (c *CLI) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "up":
		return c.RunUp(ctx)
	case "down":
		return c.RunDown(ctx)
	case "reset":
		return c.RunDownAll(ctx)
	case "status":
		return c.RunStatus(ctx)
	case "version":
		return c.RunVersion(ctx)
	case "info":
		return c.RunInfo(ctx)
	case "steps":
		n, err := positionalInt(args, "steps")
		if err != nil {
			return err
		}
		return c.RunSteps(ctx, n)
	case "goto":
		n, err := positionalInt(args, "goto")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("goto: version must not be negative, got %d", n)
		}
		return c.RunGoto(ctx, uint(n))
	case "force":
		n, err := positionalInt(args, "force")
		if err != nil {
			return err
		}
		return c.RunForce(ctx, n)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

func positionalInt(args []string, command string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%s: version argument is required", command)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid version %q", command, args[0])
	}
	return n, nil
}

// RunUp applies every pending snapshot schema migration.
func (c *CLI) RunUp(ctx context.Context) error {
	fmt.Fprintln(c.output, "Applying snapshot schema migrations...")

	if err := c.migrator.Up(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return c.printVersion(ctx, "Schema up to date.")
}

// RunDown rolls back the last migration
func (c *CLI) RunDown(ctx context.Context) error {
	fmt.Fprintln(c.output, "Rolling back last migration...")

	if err := c.migrator.Down(ctx); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return c.printVersion(ctx, "Rollback complete.")
}

// RunDownAll drops the whole snapshot schema.
func (c *CLI) RunDownAll(ctx context.Context) error {
	fmt.Fprintln(c.output, "Rolling back all migrations...")

	if err := c.migrator.DownAll(ctx); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	fmt.Fprintln(c.output, "All migrations rolled back.")
	return nil
}

// RunSteps applies n migrations, or rolls back -n when n is negative.
func (c *CLI) RunSteps(ctx context.Context, n int) error {
	if n == 0 {
		fmt.Fprintln(c.output, "Nothing to do.")
		return nil
	}
	if n > 0 {
		fmt.Fprintf(c.output, "Applying %d migration(s)...\n", n)
	} else {
		fmt.Fprintf(c.output, "Rolling back %d migration(s)...\n", -n)
	}

	if err := c.migrator.Steps(ctx, n); err != nil {
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return c.printVersion(ctx, "Complete.")
}

// RunGoto migrates to a specific version
func (c *CLI) RunGoto(ctx context.Context, version uint) error {
	fmt.Fprintf(c.output, "Migrating to version %d...\n", version)

	if err := c.migrator.Goto(ctx, version); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return c.printVersion(ctx, "Migration complete.")
}

// RunForce sets the recorded version without running any migration.
// Used to recover from a dirty state after a failed migration.
func (c *CLI) RunForce(ctx context.Context, version int) error {
	fmt.Fprintf(c.output, "Forcing version to %d...\n", version)

	if err := c.migrator.Force(ctx, version); err != nil {
		return fmt.Errorf("force failed: %w", err)
	}

	fmt.Fprintf(c.output, "Version forced to %d\n", version)
	return nil
}

// RunVersion shows the current migration version
func (c *CLI) RunVersion(ctx context.Context) error {
	version, dirty, err := c.migrator.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	if version == 0 {
		fmt.Fprintln(c.output, "No migrations applied yet.")
		return nil
	}

	fmt.Fprintf(c.output, "Current version: %d", version)
	if dirty {
		fmt.Fprint(c.output, " (dirty, run `migrate force` after fixing the schema)")
	}
	fmt.Fprintln(c.output)
	return nil
}

// RunStatus prints one row per embedded migration plus a summary line.
func (c *CLI) RunStatus(ctx context.Context) error {
	statuses, err := c.migrator.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if len(statuses) == 0 {
		fmt.Fprintln(c.output, "No migrations found.")
		return nil
	}

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
	for _, s := range statuses {
		state := "pending"
		switch {
		case s.Dirty:
			state = "dirty"
		case s.Applied:
			state = "applied"
		}
		fmt.Fprintf(w, "%06d\t%s\t%s\n", s.Version, s.Name, state)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	info, err := c.migrator.Info(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.output)
	fmt.Fprintf(c.output, "Total: %d, Applied: %d, Pending: %d\n",
		info.TotalMigrations, info.AppliedMigrations, info.PendingMigrations)
	return nil
}

// RunInfo shows detailed migration information
func (c *CLI) RunInfo(ctx context.Context) error {
	info, err := c.migrator.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get info: %w", err)
	}

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Snapshot schema:")
	fmt.Fprintf(w, "  current version\t%d\n", info.CurrentVersion)
	fmt.Fprintf(w, "  dirty\t%v\n", info.Dirty)
	fmt.Fprintf(w, "  total\t%d\n", info.TotalMigrations)
	fmt.Fprintf(w, "  applied\t%d\n", info.AppliedMigrations)
	fmt.Fprintf(w, "  pending\t%d\n", info.PendingMigrations)
	return w.Flush()
}

func (c *CLI) printVersion(ctx context.Context, prefix string) error {
	info, err := c.migrator.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.output, "%s Current version: %d\n", prefix, info.CurrentVersion)
	return nil
}
