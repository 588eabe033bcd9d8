package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/repo"
	"github.com/sbak-archive/sbak/restore"
)

// commandRestore implements:
// "restore -b NAME -t PATH [-r HASHPREFIX] [-O] [-R] [--show-symlinks] [--repo R]".
type commandRestore struct {
	bankName     string
	target       string
	revision     string
	overwrite    bool
	remove       bool
	showSymlinks bool
	out          textOutput
}

func (c *commandRestore) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("restore", "Rematerialise a bank's snapshot onto a target directory")
	cmd.Flag("bank", "Bank name").Short('b').Required().StringVar(&c.bankName)
	cmd.Flag("to", "Restore target directory").Short('t').Required().StringVar(&c.target)
	cmd.Flag("revision", "Hash prefix of the snapshot to restore, defaulting to the bank's last scan").Short('r').StringVar(&c.revision)
	cmd.Flag("overwrite", "Overwrite files already present at the target").Short('O').BoolVar(&c.overwrite)
	cmd.Flag("remove", "Remove target files not present in the restored snapshot").Short('R').BoolVar(&c.remove)
	cmd.Flag("show-symlinks", "Print the symlinks the restore deferred instead of creating").BoolVar(&c.showSymlinks)

	c.out.setup(svc)
	cmd.Action(svc.repositoryAction(c.run))
}

func (c *commandRestore) run(ctx context.Context, r *repo.Repository) error {
	b, err := r.OpenBank(c.bankName)
	if err != nil {
		return errors.Wrapf(err, "opening bank %q", c.bankName)
	}

	history, err := c.resolveHistory(b)
	if err != nil {
		return err
	}

	restorer := restore.NewRestorer(b)
	restorer.AllowOverwrite = c.overwrite
	restorer.AllowRemove = c.remove

	if err := restorer.Extend(ctx, c.target, history); err != nil {
		return errors.Wrap(err, "restoring")
	}

	log(ctx).Infof("bank %q: restored %s to %s", c.bankName, history.ID, c.target)

	if c.showSymlinks {
		for _, s := range restorer.Symlinks() {
			c.out.printStdout("%s -> %s (dir=%v)\n", s.From, s.To, s.IsDir)
		}
	}

	return nil
}

// resolveHistory picks the history record named by --revision, or the
// bank's last scan when --revision is absent.
func (c *commandRestore) resolveHistory(b *repo.Bank) (repo.History, error) {
	if c.revision == "" {
		h, ok, err := b.LastScan()
		if err != nil {
			return repo.History{}, errors.Wrap(err, "reading last scan")
		}

		if !ok {
			return repo.History{}, errors.Errorf("bank %q has no scans", c.bankName)
		}

		return h, nil
	}

	matches, err := b.FindHash(c.revision)
	if err != nil {
		return repo.History{}, errors.Wrapf(err, "looking up revision %q", c.revision)
	}

	if len(matches) == 0 {
		return repo.History{}, errors.Errorf("no history with hash prefix %q", c.revision)
	}

	ids := make(map[string]bool)
	for _, h := range matches {
		ids[h.ID.String()] = true
	}

	if len(ids) > 1 {
		return repo.History{}, errors.Errorf("hash prefix %q matches %d distinct snapshots, need more characters", c.revision, len(ids))
	}

	// Histories() returns ascending order, so the last match is the most
	// recent record of this (possibly repeated) snapshot.
	return matches[len(matches)-1], nil
}
