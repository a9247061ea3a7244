package cmd

import (
	"strconv"
	"strings"
	"time"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/outbox"
	"github.com/manav03panchal/driverhelper/internal/output"
	"github.com/manav03panchal/driverhelper/internal/parser"
)

// now is the clock used by commands.
var now = time.Now

// deviceIDPath locates the persisted device id.
var deviceIDPath = outbox.DefaultDeviceIDPath

// cliOut returns the CLI formatter on the command clock.
func cliOut() *output.CLIFormatter {
	c := ctx.CLIFormatter()
	c.Now = now
	return c
}

// userInput turns parser errors into user errors so they print with
// their examples.
func userInput(err error) error {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return pe.ToUserError()
	}
	return err
}

// parseID parses a positive record id.
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewUserErrorWithField("id", s,
			"invalid "+kind+" id", "Use the numeric id shown by '"+kind+" list'")
	}
	return id, nil
}

// pluralize formats n with the singular or plural noun.
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}
