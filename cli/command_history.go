package cli

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/repo"
)

const defaultHistoryShowCount = 20

// commandHistory implements "history -b NAME [-n COUNT|all] [-z TIMEZONE]".
type commandHistory struct {
	bankName  string
	showCount string
	timezone  string
	out       textOutput
}

func (c *commandHistory) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("history", "List a bank's recorded snapshots")
	cmd.Flag("bank", "Bank name").Short('b').Required().StringVar(&c.bankName)
	cmd.Flag("show-count", `How many of the most recent snapshots to show, or "all"`).Short('n').Default(strconv.Itoa(defaultHistoryShowCount)).StringVar(&c.showCount)
	cmd.Flag("timezone", `Timezone to render timestamps in, or "local"`).Short('z').Default("local").StringVar(&c.timezone)

	c.out.setup(svc)
	cmd.Action(svc.repositoryAction(c.run))
}

func (c *commandHistory) run(_ context.Context, r *repo.Repository) error {
	b, err := r.OpenBank(c.bankName)
	if err != nil {
		return errors.Wrapf(err, "opening bank %q", c.bankName)
	}

	histories, err := b.Histories()
	if err != nil {
		return errors.Wrap(err, "listing history")
	}

	histories, err = tailHistories(histories, c.showCount)
	if err != nil {
		return err
	}

	for _, h := range histories {
		ts, err := c.formatTimestamp(h)
		if err != nil {
			return err
		}

		c.out.printStdout("%s    %s\n", ts, h.ID)
	}

	return nil
}

func (c *commandHistory) formatTimestamp(h repo.History) (string, error) {
	if c.timezone == "local" {
		return h.Timestamp.FormatIn("2006-01-02 15:04:05 MST", "Local")
	}

	return h.Timestamp.FormatIn("2006-01-02 15:04:05 MST", c.timezone)
}

// tailHistories keeps the newest count records of an ascending-ordered
// history slice; count == "all" keeps everything.
func tailHistories(histories []repo.History, count string) ([]repo.History, error) {
	if count == "all" {
		return histories, nil
	}

	n, err := strconv.Atoi(count)
	if err != nil {
		return nil, errors.Wrapf(err, "-n/--show-count %q is not a number or \"all\"", count)
	}

	if n < 0 || n >= len(histories) {
		return histories, nil
	}

	return histories[len(histories)-n:], nil
}
