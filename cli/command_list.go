package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/repo"
)

// commandList implements "list [-u]".
type commandList struct {
	utc bool
	out textOutput
}

func (c *commandList) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("list", "List every bank in a repository").Alias("ls")
	cmd.Flag("utc", "Show the last-scan time in UTC instead of local time").Short('u').BoolVar(&c.utc)

	c.out.setup(svc)
	cmd.Action(svc.repositoryAction(c.run))
}

func (c *commandList) run(_ context.Context, r *repo.Repository) error {
	banks, errs, err := r.OpenAllBanks()
	if err != nil {
		return errors.Wrap(err, "listing banks")
	}

	for _, b := range banks {
		c.out.printStdout("%s\n", b.Name())

		h, ok, err := b.LastScan()
		if err != nil {
			return errors.Wrapf(err, "reading last scan for bank %q", b.Name())
		}

		if !ok {
			c.out.printNote("    no backups\n")
			continue
		}

		if c.utc {
			c.out.printStdout("    last backup at %s\n", h.Timestamp)
			continue
		}

		local, err := h.Timestamp.FormatIn("2006-01-02 15:04:05 MST", "Local")
		if err != nil {
			return err
		}

		c.out.printStdout("    last backup at %s\n", local)
	}

	for name, berr := range errs {
		c.out.printStderr("bank %q: %v\n", name, berr)
	}

	return nil
}
