package visa

import (
	"context"
	"fmt"
	"strings"

	"github.com/gotmc/query"
)

// Identification holds the parsed response of the standard
// identification queries. It is the raw material a device profile is
// built from.
type Identification struct {
	Vendor   string
	Model    string
	Serial   string
	Firmware string

	// Options lists installed instrument options from *OPT?. An
	// instrument with no options reports "0", which parses to an
	// empty slice.
	Options []string
}

// Identify issues "*IDN?" and "*OPT?" against the session and parses
// the results.
//
// The *IDN? response is four comma-separated fields:
// vendor,model,serial,firmware. *OPT? failures are not fatal; not
// every instrument implements it, and a missing option list simply
// means no option-gated constraint applies.
//
// Parameters:
//   - ctx: Context for both queries
//   - s: Open instrument session
//
// Returns:
//   - Identification: Parsed identity
//   - error: If *IDN? fails or is malformed
func Identify(ctx context.Context, s Session) (Identification, error) {
	q := querier{ctx: ctx, session: s}

	idn, err := query.String(q, "*IDN?")
	if err != nil {
		return Identification{}, fmt.Errorf("querying *IDN?: %w", err)
	}

	fields := strings.Split(idn, ",")
	if len(fields) != 4 {
		return Identification{}, fmt.Errorf("%w: %q", ErrBadIdentification, idn)
	}

	ident := Identification{
		Vendor:   strings.TrimSpace(fields[0]),
		Model:    strings.TrimSpace(fields[1]),
		Serial:   strings.TrimSpace(fields[2]),
		Firmware: strings.TrimSpace(fields[3]),
	}

	opt, err := query.String(q, "*OPT?")
	if err == nil {
		ident.Options = parseOptions(opt)
	}

	return ident, nil
}

// parseOptions splits a *OPT? response into individual option codes.
// "0" means no options installed.
func parseOptions(opt string) []string {
	opt = strings.TrimSpace(opt)
	if opt == "" || opt == "0" {
		return nil
	}

	var options []string
	for _, o := range strings.Split(opt, ",") {
		o = strings.TrimSpace(o)
		if o != "" && o != "0" {
			options = append(options, o)
		}
	}
	return options
}
